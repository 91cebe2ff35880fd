// Package classify derives an asset's kind from its free-text jenis label and
// resolves the legacy alias columns into one canonical value per field.
package classify

import (
	"strings"

	"github.com/erazemk/sidak/internal/model"
)

// Alias names one legacy column and how to read it from an asset.
type Alias struct {
	Field string
	Get   func(*model.Asset) string
}

// Alias tables, in precedence order. The first non-empty column wins.
var (
	CodeAliases = []Alias{
		{"noKodeBarang", func(a *model.Asset) string { return a.NoKodeBarang }},
		{"kodeBarang", func(a *model.Asset) string { return a.KodeBarang }},
		{"kodeTanah", func(a *model.Asset) string { return a.KodeTanah }},
	}
	ConditionAliases = []Alias{
		{"keadaanBarang", func(a *model.Asset) string { return a.KeadaanBarang }},
		{"kondisi", func(a *model.Asset) string { return a.Kondisi }},
	}
	SourceAliases = []Alias{
		{"sumberPerolehan", func(a *model.Asset) string { return a.SumberPerolehan }},
		{"asalUsul", func(a *model.Asset) string { return a.AsalUsul }},
	}
)

// Result is the classified, alias-resolved view of an asset.
type Result struct {
	Kind      model.Kind `json:"kind"`
	Code      string     `json:"code"`
	Condition string     `json:"condition"`
	Source    string     `json:"source"`
}

// Classify returns the kind and canonical fields of a. A nil asset is an Item
// with no canonical data.
func Classify(a *model.Asset) Result {
	if a == nil {
		return Result{Kind: model.KindItem}
	}
	return Result{
		Kind:      KindOf(a.JenisInventaris),
		Code:      Resolve(a, CodeAliases),
		Condition: Resolve(a, ConditionAliases),
		Source:    Resolve(a, SourceAliases),
	}
}

// KindOf classifies a jenis label. Land is checked before Building, and
// anything else, including an empty label, is an Item.
func KindOf(jenis string) model.Kind {
	j := strings.ToLower(jenis)
	switch {
	case strings.Contains(j, "tanah"):
		return model.KindLand
	case strings.Contains(j, "bangunan"):
		return model.KindBuilding
	default:
		return model.KindItem
	}
}

// Resolve returns the first non-blank value among aliases, trimmed.
func Resolve(a *model.Asset, aliases []Alias) string {
	if a == nil {
		return ""
	}
	for _, alias := range aliases {
		if v := strings.TrimSpace(alias.Get(a)); v != "" {
			return v
		}
	}
	return ""
}

// Code returns the canonical code of a.
func Code(a *model.Asset) string { return Resolve(a, CodeAliases) }

// Condition returns the canonical condition of a.
func Condition(a *model.Asset) string { return Resolve(a, ConditionAliases) }

// Source returns the canonical acquisition source of a.
func Source(a *model.Asset) string { return Resolve(a, SourceAliases) }

package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/erazemk/sidak/internal/model"
)

// FallbackPrefix is used for jenis labels outside the prefix vocabulary.
const FallbackPrefix = "INV"

// DefaultPrefixes maps lower-cased item jenis labels to code prefixes.
var DefaultPrefixes = map[string]string{
	"elektronik":           "ELK",
	"komputer":             "KMP",
	"kendaraan":            "KND",
	"mebel":                "MBL",
	"meubelair":            "MBL",
	"alat tulis kantor":    "ATK",
	"peralatan kantor":     "PKT",
	"alat kesehatan":       "ALKS",
	"alat berat":           "ALBR",
	"alat komunikasi":      "KOM",
	"alat laboratorium":    "LAB",
	"buku":                 "BKU",
	"peralatan olahraga":   "OLR",
	"peralatan kebersihan": "KBR",
}

// CodeGenerator assigns sequential codes of the form PREFIX-NNN to new items.
type CodeGenerator struct {
	prefixes map[string]string
}

// NewCodeGenerator returns a generator using DefaultPrefixes plus extra.
// Entries in extra override the defaults; keys are matched case-insensitively.
func NewCodeGenerator(extra map[string]string) *CodeGenerator {
	prefixes := make(map[string]string, len(DefaultPrefixes)+len(extra))
	for k, v := range DefaultPrefixes {
		prefixes[k] = v
	}
	for k, v := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToUpper(strings.TrimSpace(v))
		if k != "" && v != "" {
			prefixes[k] = v
		}
	}
	return &CodeGenerator{prefixes: prefixes}
}

// Prefix returns the code prefix for a jenis label.
func (g *CodeGenerator) Prefix(jenis string) string {
	if p, ok := g.prefixes[strings.ToLower(strings.TrimSpace(jenis))]; ok {
		return p
	}
	return FallbackPrefix
}

// NeedsCode reports whether a is an Item without any code.
func NeedsCode(a *model.Asset) bool {
	return KindOf(a.JenisInventaris) == model.KindItem && Code(a) == ""
}

// Next returns the next free code for an item of the given jenis, given the
// assets already registered. Only Item codes with the same prefix and at
// least three trailing digits count towards the sequence; a candidate that
// collides with any existing code is skipped.
func (g *CodeGenerator) Next(jenis string, existing []model.Asset) string {
	prefix := g.Prefix(jenis)
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d{3,})$`)

	taken := make(map[string]bool, len(existing))
	highest := 0
	for i := range existing {
		code := Code(&existing[i])
		if code == "" {
			continue
		}
		taken[code] = true
		if KindOf(existing[i].JenisInventaris) != model.KindItem {
			continue
		}
		m := pattern.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}

	for n := highest + 1; ; n++ {
		code := fmt.Sprintf("%s-%03d", prefix, n)
		if !taken[code] {
			return code
		}
	}
}

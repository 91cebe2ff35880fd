package aggregate

import (
	"sort"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
)

// ConditionSummary is the item quantity per canonical condition.
type ConditionSummary struct {
	Baik        int `json:"baik"`
	RusakRingan int `json:"rusakRingan"`
	RusakBerat  int `json:"rusakBerat"`
	Unknown     int `json:"unknown"`
}

// ComputeConditionSummary totals item quantities by condition. Land and
// buildings carry free-text conditions and are not included.
func ComputeConditionSummary(assets []model.Asset) ConditionSummary {
	var s ConditionSummary
	for i := range assets {
		a := &assets[i]
		r := classify.Classify(a)
		if r.Kind != model.KindItem {
			continue
		}
		switch normalizeCondition(r.Condition) {
		case model.ConditionBaik:
			s.Baik += a.JumlahBarang
		case model.ConditionRusakRingan:
			s.RusakRingan += a.JumlahBarang
		case model.ConditionRusakBerat:
			s.RusakBerat += a.JumlahBarang
		default:
			s.Unknown += a.JumlahBarang
		}
	}
	return s
}

// normalizeCondition accepts the spaced, camel-cased and lower-cased spellings
// found in older registers.
func normalizeCondition(c string) string {
	switch c {
	case "Baik", "baik", "BAIK", "B":
		return model.ConditionBaik
	case "Rusak Ringan", "RusakRingan", "rusak ringan", "RR":
		return model.ConditionRusakRingan
	case "Rusak Berat", "RusakBerat", "rusak berat", "RB":
		return model.ConditionRusakBerat
	}
	return ""
}

// UnitSummary is the per-unit breakdown shown next to the totals.
type UnitSummary struct {
	Unit          string `json:"unit"`
	ItemQty       int    `json:"itemQty"`
	LandCount     int    `json:"landCount"`
	BuildingCount int    `json:"buildingCount"`
}

// ComputeUnitSummary groups assets by unit, sorted by unit name. Kinds use
// the classification rule.
func ComputeUnitSummary(assets []model.Asset) []UnitSummary {
	byUnit := make(map[string]*UnitSummary)
	for i := range assets {
		a := &assets[i]
		s, ok := byUnit[a.Unit]
		if !ok {
			s = &UnitSummary{Unit: a.Unit}
			byUnit[a.Unit] = s
		}
		switch classify.KindOf(a.JenisInventaris) {
		case model.KindLand:
			s.LandCount++
		case model.KindBuilding:
			s.BuildingCount++
		default:
			s.ItemQty += a.JumlahBarang
		}
	}

	out := make([]UnitSummary, 0, len(byUnit))
	for _, s := range byUnit {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

// Package aggregate computes dashboard statistics over an already filtered
// set of assets. Nothing here caches; every call recomputes from its input.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
)

// Totals are the headline dashboard numbers.
type Totals struct {
	TotalItemQuantity  int `json:"totalItemQuantity"`
	TotalLandCount     int `json:"totalLandCount"`
	TotalBuildingCount int `json:"totalBuildingCount"`
}

// YearPoint is one bucket of the yearly trend series.
type YearPoint struct {
	Year          int `json:"year"`
	ItemQty       int `json:"itemQty"`
	LandCount     int `json:"landCount"`
	BuildingCount int `json:"buildingCount"`
}

// ComputeTotals sums item quantities and counts land and buildings.
//
// Land and building counts match the jenis label exactly ("tanah",
// "bangunan", ignoring case only), unlike classification
// which matches substrings. A label such as "Sebagian Tanah Adat" is
// therefore classified as land but not counted in TotalLandCount. The
// dashboard has always reported it this way, so the rule is kept.
func ComputeTotals(assets []model.Asset) Totals {
	var t Totals
	for i := range assets {
		a := &assets[i]
		if classify.KindOf(a.JenisInventaris) == model.KindItem {
			t.TotalItemQuantity += a.JumlahBarang
		}
		switch strings.ToLower(a.JenisInventaris) {
		case "tanah":
			t.TotalLandCount++
		case "bangunan":
			t.TotalBuildingCount++
		}
	}
	return t
}

// ParseYear returns the integer year in s, or false if s is not an integer.
func ParseYear(s string) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return y, true
}

// ComputeYearlySeries groups assets by TahunPembuatan, ascending by year.
// Assets without an integer year are left out.
func ComputeYearlySeries(assets []model.Asset) []YearPoint {
	buckets := make(map[int]*YearPoint)
	for i := range assets {
		a := &assets[i]
		year, ok := ParseYear(a.TahunPembuatan)
		if !ok {
			continue
		}
		p, ok := buckets[year]
		if !ok {
			p = &YearPoint{Year: year}
			buckets[year] = p
		}
		switch classify.KindOf(a.JenisInventaris) {
		case model.KindLand:
			p.LandCount++
		case model.KindBuilding:
			p.BuildingCount++
		default:
			p.ItemQty += a.JumlahBarang
		}
	}

	series := make([]YearPoint, 0, len(buckets))
	for _, p := range buckets {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series
}

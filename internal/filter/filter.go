// Package filter holds the pure selections the views are built from. None of
// the functions modify the dataset or the slices they are given.
package filter

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
)

// ByYearAndSeason returns the records whose year and season type equal the
// given values exactly, in dataset order. No match yields an empty slice.
func ByYearAndSeason(ds *dataset.Dataset, year, seasonType string) []dataset.Record {
	out := []dataset.Record{}
	for r := range ds.All() {
		if r.Year() == year && r.SeasonType() == seasonType {
			out = append(out, r)
		}
	}
	return out
}

// ByPlayer returns a player's records in dataset order. The match is exact and
// case-sensitive.
func ByPlayer(ds *dataset.Dataset, player string) []dataset.Record {
	out := []dataset.Record{}
	for r := range ds.All() {
		if r.Player() == player {
			out = append(out, r)
		}
	}
	return out
}

// BySeasonType keeps the records of one season type.
func BySeasonType(records []dataset.Record, seasonType string) []dataset.Record {
	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if r.SeasonType() == seasonType {
			out = append(out, r)
		}
	}
	return out
}

// SortByYearDescending returns a new slice sorted by season, latest first.
// Records of the same season keep their relative order.
func SortByYearDescending(records []dataset.Record) []dataset.Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b dataset.Record) int {
		return CompareYears(b.Year(), a.Year())
	})
	return out
}

// CompareYears orders season labels such as "2022-23" or "2023". Labels are
// compared by their leading season number and then as text.
func CompareYears(a, b string) int {
	na, okA := leadingNumber(a)
	nb, okB := leadingNumber(b)
	if okA && okB && na != nb {
		return cmp.Compare(na, nb)
	}
	return strings.Compare(a, b)
}

func leadingNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

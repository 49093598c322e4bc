// Package views computes what the overall and player pages display. Results are
// plain data; turning them into HTML or JSON is left to the caller.
package views

import (
	"errors"
	"slices"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
)

// ErrNoUpdate means the view has nothing to show for the current inputs and the
// previous output should stay as it is.
var ErrNoUpdate = errors.New("views: no update")

// Options describes a selector: the values offered and the one preselected.
type Options struct {
	Values  []string `json:"options"`
	Default string   `json:"default"`
}

// Has reports whether v is one of the offered values.
func (o Options) Has(v string) bool { return slices.Contains(o.Values, v) }

func newOptions(values []string) Options {
	o := Options{Values: values}
	if len(values) > 0 {
		o.Default = values[0]
	}
	return o
}

// Link is a navigable reference rendered as an anchor.
type Link struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Cell is one table cell. Link is set on player names in the overall table.
type Cell struct {
	Value string `json:"value"`
	Link  *Link  `json:"link,omitempty"`
}

// Table is a header plus rows aligned with it.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// projection picks dataset columns by position.
type projection struct {
	names []string
	at    []int
}

func project(ds *dataset.Dataset, keep func(string) bool, lead ...string) projection {
	var p projection
	for _, name := range lead {
		if i := ds.ColumnIndex(name); i >= 0 {
			p.names = append(p.names, name)
			p.at = append(p.at, i)
		}
	}
	for i, name := range ds.Columns() {
		if slices.Contains(lead, name) || !keep(name) {
			continue
		}
		p.names = append(p.names, name)
		p.at = append(p.at, i)
	}
	return p
}

func (p projection) table(records []dataset.Record, linkPlayers bool) Table {
	t := Table{Columns: slices.Clone(p.names), Rows: make([][]Cell, 0, len(records))}
	for _, r := range records {
		row := make([]Cell, len(p.at))
		for j, i := range p.at {
			row[j] = Cell{Value: r.Cell(i)}
			if linkPlayers && p.names[j] == dataset.ColumnPlayer {
				row[j].Link = &Link{Path: route.PlayerPath(r.Player()), Label: r.Player()}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Overall lists every player's stats for one season and season type.
type Overall struct {
	ds          *dataset.Dataset
	years       Options
	seasonTypes Options
	columns     projection
}

// OverallResult is the overall table for one selection.
type OverallResult struct {
	Year       string `json:"year"`
	SeasonType string `json:"season_type"`
	Table      Table  `json:"table"`
}

// NewOverall creates the overall view. Selector defaults are the first year and
// season type found in the dataset.
func NewOverall(ds *dataset.Dataset) *Overall {
	return &Overall{
		ds:          ds,
		years:       newOptions(ds.Years()),
		seasonTypes: newOptions(ds.SeasonTypes()),
		columns: project(ds, func(name string) bool {
			return name != dataset.ColumnYear && name != dataset.ColumnSeasonType
		}),
	}
}

// YearOptions returns the year selector.
func (v *Overall) YearOptions() Options { return cloneOptions(v.years) }

// SeasonTypeOptions returns the season type selector.
func (v *Overall) SeasonTypeOptions() Options { return cloneOptions(v.seasonTypes) }

// Compute filters by year and season type and links every player name to its
// detail page. Year and Season_type are not part of the table.
func (v *Overall) Compute(year, seasonType string) OverallResult {
	records := filter.ByYearAndSeason(v.ds, year, seasonType)
	return OverallResult{
		Year:       year,
		SeasonType: seasonType,
		Table:      v.columns.table(records, true),
	}
}

// PlayerDetail shows one player's seasons, latest first.
type PlayerDetail struct {
	ds          *dataset.Dataset
	seasonTypes Options
	columns     projection
}

// PlayerResult is the detail table for one player and season type.
type PlayerResult struct {
	Player     string `json:"player"`
	Label      string `json:"label"`
	SeasonType string `json:"season_type"`
	Table      Table  `json:"table"`
}

// NewPlayerDetail creates the player view. Its season type selector defaults to
// the first season type in the dataset, independently of the overall view.
func NewPlayerDetail(ds *dataset.Dataset) *PlayerDetail {
	return &PlayerDetail{
		ds:          ds,
		seasonTypes: newOptions(ds.SeasonTypes()),
		columns: project(ds, func(name string) bool {
			return name != dataset.ColumnPlayer && name != dataset.ColumnSeasonType
		}, dataset.ColumnYear),
	}
}

// SeasonTypeOptions returns the view's own season type selector.
func (v *PlayerDetail) SeasonTypeOptions() Options { return cloneOptions(v.seasonTypes) }

// Compute returns the player's records for seasonType sorted by year descending.
// It returns ErrNoUpdate when r is not a player route. A player without records
// yields an empty table; the label is still set.
func (v *PlayerDetail) Compute(r route.Route, seasonType string) (PlayerResult, error) {
	if r.Kind != route.PlayerDetail {
		return PlayerResult{}, ErrNoUpdate
	}

	records := filter.SortByYearDescending(
		filter.BySeasonType(filter.ByPlayer(v.ds, r.Player), seasonType),
	)
	return PlayerResult{
		Player:     r.Player,
		Label:      r.Player + " Stats",
		SeasonType: seasonType,
		Table:      v.columns.table(records, false),
	}, nil
}

func cloneOptions(o Options) Options {
	return Options{Values: slices.Clone(o.Values), Default: o.Default}
}

package dataset

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Column names the loader relies on.
const (
	ColumnPlayerID   = "PLAYER_ID"
	ColumnTeamID     = "TEAM_ID"
	ColumnPlayer     = "PLAYER"
	ColumnYear       = "Year"
	ColumnSeasonType = "Season_type"
)

// Season types as they appear after normalization.
const (
	SeasonTypeRegular  = "Regular Season"
	SeasonTypePlayoffs = "Playoffs"

	// encodedRegularSeason is the raw value some exports carry instead of SeasonTypeRegular.
	encodedRegularSeason = "Regular%20Season"
)

// RequiredColumns must all be present in a source header.
var RequiredColumns = []string{ColumnPlayerID, ColumnTeamID, ColumnPlayer, ColumnYear, ColumnSeasonType}

// Record is one row of the dataset. Its cells are aligned with Dataset.Columns.
// Records are values; the cells slice is never handed out, so a Record cannot be
// used to modify the Dataset it came from.
type Record struct {
	player     string
	year       string
	seasonType string
	cells      []string
}

// Player returns the player name.
func (r Record) Player() string { return r.player }

// Year returns the season label exactly as loaded (e.g. "2022-23").
func (r Record) Year() string { return r.year }

// SeasonType returns the normalized season type.
func (r Record) SeasonType() string { return r.seasonType }

// Cell returns the cell at column index i, or "" when i is out of range.
func (r Record) Cell(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Cells returns a copy of all cells.
func (r Record) Cells() []string {
	return slices.Clone(r.cells)
}

// Float parses the cell at column index i as a number.
func (r Record) Float(i int) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Cell(i)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Dataset is the immutable in-memory table every view reads from. It is built
// once by Load (or FromTable) and has no mutating methods.
type Dataset struct {
	columns     []string
	index       map[string]int
	records     []Record
	years       []string
	seasonTypes []string
	players     map[string]int
}

func newDataset(columns []string, records []Record) *Dataset {
	ds := &Dataset{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		records: records,
		players: make(map[string]int),
	}
	for i, c := range columns {
		ds.index[c] = i
	}

	seenYear := make(map[string]bool)
	seenSeason := make(map[string]bool)
	for _, r := range records {
		if !seenYear[r.year] {
			seenYear[r.year] = true
			ds.years = append(ds.years, r.year)
		}
		if !seenSeason[r.seasonType] {
			seenSeason[r.seasonType] = true
			ds.seasonTypes = append(ds.seasonTypes, r.seasonType)
		}
		ds.players[r.player]++
	}
	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Columns returns the column names in source order, without PLAYER_ID and TEAM_ID.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// ColumnIndex returns the position of a column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Record returns the i-th record in dataset order.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// All iterates the records in dataset order.
func (d *Dataset) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range d.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Years returns the distinct season labels in the order first encountered.
func (d *Dataset) Years() []string { return slices.Clone(d.years) }

// SeasonTypes returns the distinct season types in the order first encountered.
func (d *Dataset) SeasonTypes() []string { return slices.Clone(d.seasonTypes) }

// HasPlayer reports whether at least one record belongs to player.
func (d *Dataset) HasPlayer(player string) bool { return d.players[player] > 0 }

// PlayerCount returns the number of distinct players.
func (d *Dataset) PlayerCount() int { return len(d.players) }

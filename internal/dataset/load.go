package dataset

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMissingColumns is wrapped by LoadError when the header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

// LoadError is returned when a dataset cannot be produced from its source.
// It is fatal at startup.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RawTable is a header plus rows of text cells, as read from a source.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Report summarizes a load.
type Report struct {
	Source             string `json:"source"`
	RowsRead           int    `json:"rows_read"`
	RowsKept           int    `json:"rows_kept"`
	SkippedEmptyPlayer int    `json:"skipped_empty_player"`
	NormalizedSeason   int    `json:"normalized_season_type"`
}

// Load reads src once and builds the Dataset. Any failure is a *LoadError.
func Load(ctx context.Context, src Source) (*Dataset, Report, error) {
	raw, err := src.Read(ctx)
	if err != nil {
		return nil, Report{Source: src.Name()}, &LoadError{Source: src.Name(), Err: err}
	}

	ds, report, err := FromTable(raw)
	report.Source = src.Name()
	if err != nil {
		return nil, report, &LoadError{Source: src.Name(), Err: err}
	}
	return ds, report, nil
}

// FromTable validates the header, drops the identifier columns, normalizes the
// season type and returns the resulting Dataset.
func FromTable(raw *RawTable) (*Dataset, Report, error) {
	var report Report
	if raw == nil || len(raw.Header) == 0 {
		return nil, report, fmt.Errorf("%w: empty header", ErrMissingColumns)
	}

	header := slices.Clone(raw.Header)
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := pos[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, report, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	// keep holds the source positions of the columns that survive the drop.
	var columns []string
	var keep []int
	for i, name := range header {
		if name == ColumnPlayerID || name == ColumnTeamID {
			continue
		}
		columns = append(columns, name)
		keep = append(keep, i)
	}

	out := slices.IndexFunc(columns, func(c string) bool { return c == ColumnSeasonType })
	playerAt, yearAt, seasonAt := pos[ColumnPlayer], pos[ColumnYear], pos[ColumnSeasonType]

	records := make([]Record, 0, len(raw.Rows))
	for n, row := range raw.Rows {
		report.RowsRead++
		if len(row) != len(header) {
			return nil, report, fmt.Errorf("row %d: expected %d fields, got %d", n+1, len(header), len(row))
		}

		player := row[playerAt]
		if strings.TrimSpace(player) == "" {
			report.SkippedEmptyPlayer++
			continue
		}

		seasonType := row[seasonAt]
		if seasonType == encodedRegularSeason {
			seasonType = SeasonTypeRegular
			report.NormalizedSeason++
		}

		cells := make([]string, len(keep))
		for i, src := range keep {
			cells[i] = row[src]
		}
		cells[out] = seasonType

		records = append(records, Record{
			player:     player,
			year:       row[yearAt],
			seasonType: seasonType,
			cells:      cells,
		})
	}
	report.RowsKept = len(records)

	return newDataset(columns, records), report, nil
}

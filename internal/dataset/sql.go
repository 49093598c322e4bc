package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// SQLSource reads the dataset from a table created by the store package (or any
// table with the same column names). When ColumnsTable holds the imported header
// its names and order are used. Otherwise every column is read in table order and
// names are mapped back to the CSV header spelling: year -> Year,
// season_type -> Season_type, everything else upper-cased.
type SQLSource struct {
	DB    *sql.DB
	Table string
	// ColumnsTable lists (position, name, column_name) of the imported header.
	// Empty, or a table with no rows, means read every column.
	ColumnsTable string
	// OrderBy keeps the import row order; empty means no ORDER BY.
	OrderBy string
	// Label overrides Name(); DSNs carry credentials and should not be logged.
	Label string
}

func (s *SQLSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "sql:" + s.Table
}

func (s *SQLSource) Read(ctx context.Context) (*RawTable, error) {
	header, columns, err := s.recordedHeader(ctx)
	if err != nil {
		return nil, err
	}

	selected := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		selected = strings.Join(quoted, ", ")
	}

	query := "SELECT " + selected + " FROM " + pq.QuoteIdentifier(s.Table)
	if s.OrderBy != "" {
		query += " ORDER BY " + pq.QuoteIdentifier(s.OrderBy)
	}

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.Table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	// skip marks bookkeeping columns that are not part of the CSV layout.
	skip := make([]bool, len(names))
	table := &RawTable{Header: header}
	if len(columns) == 0 {
		for i, name := range names {
			if strings.EqualFold(name, s.OrderBy) {
				skip[i] = true
				continue
			}
			table.Header = append(table.Header, canonicalColumn(name))
		}
	}

	cells := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]string, 0, len(table.Header))
		for i, c := range cells {
			if skip[i] {
				continue
			}
			row = append(row, c.String)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return table, nil
}

// recordedHeader returns the imported header names and their table columns, in
// CSV order. Both are empty when there is no record to go by.
func (s *SQLSource) recordedHeader(ctx context.Context) (header, columns []string, err error) {
	if s.ColumnsTable == "" {
		return nil, nil, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT name, column_name FROM "+pq.QuoteIdentifier(s.ColumnsTable)+" ORDER BY position")
	if err != nil {
		return nil, nil, fmt.Errorf("querying %s: %w", s.ColumnsTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, column string
		if err := rows.Scan(&name, &column); err != nil {
			return nil, nil, fmt.Errorf("scanning header: %w", err)
		}
		header = append(header, name)
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating header: %w", err)
	}
	return header, columns, nil
}

func canonicalColumn(name string) string {
	switch strings.ToLower(name) {
	case "year":
		return ColumnYear
	case "season_type":
		return ColumnSeasonType
	default:
		return strings.ToUpper(name)
	}
}

package testutil

import (
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
)

// StatsCSV is a small export in the layout of nba_player_stats.csv.
const StatsCSV = `PLAYER_ID,RANK,PLAYER,TEAM_ID,TEAM,GP,PTS,REB,AST,Year,Season_type
1628983,1,Shai Gilgeous-Alexander,1610612760,OKC,75,2485,362,465,2023-24,Regular%20Season
203999,2,Nikola Jokić,1610612743,DEN,79,2085,976,708,2023-24,Regular%20Season
1628983,1,Shai Gilgeous-Alexander,1610612760,OKC,10,305,72,64,2023-24,Playoffs
2544,1,LeBron James,1610612747,LAL,55,1590,457,375,2022-23,Regular%20Season
203999,3,Nikola Jokić,1610612743,DEN,69,1690,817,678,2022-23,Regular%20Season
203999,1,Nikola Jokić,1610612743,DEN,20,600,269,190,2022-23,Playoffs
2544,4,LeBron James,1610612747,LAL,71,1959,457,589,2023-24,Regular%20Season
1630578,9,D'Angelo Russell,1610612747,LAL,76,1366,238,479,2023-24,Regular%20Season
`

// MockTable parses StatsCSV into a raw table.
func MockTable(t testing.TB) *dataset.RawTable {
	t.Helper()

	table, err := dataset.ParseCSV(strings.NewReader(StatsCSV))
	if err != nil {
		t.Fatalf("parsing fixture csv: %v", err)
	}
	return table
}

// MockDataset builds a dataset from StatsCSV.
func MockDataset(t testing.TB) *dataset.Dataset {
	t.Helper()

	ds, _, err := dataset.FromTable(MockTable(t))
	if err != nil {
		t.Fatalf("building fixture dataset: %v", err)
	}
	return ds
}

// DatasetFromCSV builds a dataset from arbitrary CSV text.
func DatasetFromCSV(t testing.TB, csv string) *dataset.Dataset {
	t.Helper()

	table, err := dataset.ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	ds, _, err := dataset.FromTable(table)
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	return ds
}

package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/testutil"
)

func TestByYearAndSeason_TwoRegularOnePlayoff(t *testing.T) {
	ds := testutil.DatasetFromCSV(t, `PLAYER_ID,TEAM_ID,PLAYER,Year,Season_type,PTS
1,10,A,2022-23,Regular%20Season,10
2,20,B,2022-23,Regular Season,20
3,30,C,2022-23,Playoffs,30
4,40,D,2021-22,Regular Season,40
`)

	regular := filter.ByYearAndSeason(ds, "2022-23", dataset.SeasonTypeRegular)
	playoffs := filter.ByYearAndSeason(ds, "2022-23", dataset.SeasonTypePlayoffs)

	require.Len(t, regular, 2)
	assert.Equal(t, "A", regular[0].Player())
	assert.Equal(t, "B", regular[1].Player())
	require.Len(t, playoffs, 1)
	assert.Equal(t, "C", playoffs[0].Player())
}

func TestByYearAndSeason_OnlyExactMatches(t *testing.T) {
	ds := testutil.MockDataset(t)

	for _, year := range ds.Years() {
		for _, season := range ds.SeasonTypes() {
			for _, r := range filter.ByYearAndSeason(ds, year, season) {
				assert.Equal(t, year, r.Year())
				assert.Equal(t, season, r.SeasonType())
			}
		}
	}
}

func TestByYearAndSeason_NoCoercion(t *testing.T) {
	ds := testutil.DatasetFromCSV(t, `PLAYER_ID,TEAM_ID,PLAYER,Year,Season_type
1,10,A,2023,Playoffs
`)

	assert.Len(t, filter.ByYearAndSeason(ds, "2023", "Playoffs"), 1)
	assert.Empty(t, filter.ByYearAndSeason(ds, "2023.0", "Playoffs"))
	assert.Empty(t, filter.ByYearAndSeason(ds, " 2023", "Playoffs"))
}

func TestByYearAndSeason_NoMatchIsEmpty(t *testing.T) {
	ds := testutil.MockDataset(t)

	got := filter.ByYearAndSeason(ds, "1999-00", dataset.SeasonTypeRegular)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestByYearAndSeason_Idempotent(t *testing.T) {
	ds := testutil.MockDataset(t)

	first := filter.ByYearAndSeason(ds, "2023-24", dataset.SeasonTypeRegular)
	second := filter.ByYearAndSeason(ds, "2023-24", dataset.SeasonTypeRegular)

	assert.Equal(t, first, second)
	assert.Equal(t, 8, ds.Len())
}

func TestByPlayer(t *testing.T) {
	ds := testutil.MockDataset(t)

	got := filter.ByPlayer(ds, "Nikola Jokić")
	require.Len(t, got, 3)
	// dataset order, not year order
	assert.Equal(t, "2023-24", got[0].Year())
	assert.Equal(t, "2022-23", got[1].Year())
	assert.Equal(t, "2022-23", got[2].Year())

	assert.Empty(t, filter.ByPlayer(ds, "nikola jokić"))
}

func TestSortByYearDescending(t *testing.T) {
	ds := testutil.DatasetFromCSV(t, `PLAYER_ID,TEAM_ID,PLAYER,Year,Season_type,PTS
1,10,A,2019-20,Regular Season,1
1,10,A,2022-23,Regular Season,2
1,10,A,2020-21,Regular Season,3
1,10,A,2022-23,Playoffs,4
1,10,A,2009-10,Regular Season,5
`)
	records := filter.ByPlayer(ds, "A")
	pts := ds.ColumnIndex("PTS")

	sorted := filter.SortByYearDescending(records)

	var years, points []string
	for _, r := range sorted {
		years = append(years, r.Year())
		points = append(points, r.Cell(pts))
	}
	assert.Equal(t, []string{"2022-23", "2022-23", "2020-21", "2019-20", "2009-10"}, years)
	// stable for equal years
	assert.Equal(t, []string{"2", "4", "3", "1", "5"}, points)

	// input left alone
	assert.Equal(t, "2019-20", records[0].Year())
}

func TestSortByYearDescending_NonIncreasingForEveryPlayer(t *testing.T) {
	ds := testutil.MockDataset(t)

	players := map[string]bool{}
	for r := range ds.All() {
		players[r.Player()] = true
	}

	for p := range players {
		sorted := filter.SortByYearDescending(filter.ByPlayer(ds, p))
		for i := 1; i < len(sorted); i++ {
			assert.LessOrEqual(t, filter.CompareYears(sorted[i].Year(), sorted[i-1].Year()), 0,
				"player %s not sorted at %d", p, i)
		}
	}
}

func TestBySeasonType(t *testing.T) {
	ds := testutil.MockDataset(t)

	got := filter.BySeasonType(filter.ByPlayer(ds, "Nikola Jokić"), dataset.SeasonTypePlayoffs)
	require.Len(t, got, 1)
	assert.Equal(t, "2022-23", got[0].Year())
}

func TestCompareYears(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2022-23", "2021-22", 1},
		{"2021-22", "2022-23", -1},
		{"2022-23", "2022-23", 0},
		{"1999-00", "2000-01", -1},
		{"2023", "2022-23", 1},
		{"n/a", "n/b", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.CompareYears(tt.a, tt.b))
		})
	}
}

package charts_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/charts"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/testutil"
)

func TestPlayerTrend_OldestFirst(t *testing.T) {
	ds := testutil.MockDataset(t)

	points, err := charts.PlayerTrend(ds, "LeBron James", dataset.SeasonTypeRegular, "PTS")
	require.NoError(t, err)

	assert.Equal(t, []charts.DataPoint{
		{Label: "2022-23", Value: 1590},
		{Label: "2023-24", Value: 1959},
	}, points)
}

func TestPlayerTrend_UnknownStat(t *testing.T) {
	_, err := charts.PlayerTrend(testutil.MockDataset(t), "LeBron James", dataset.SeasonTypeRegular, "XYZ")
	assert.ErrorIs(t, err, charts.ErrUnknownStat)
}

func TestPlayerTrend_SkipsNonNumeric(t *testing.T) {
	ds := testutil.DatasetFromCSV(t, `PLAYER_ID,TEAM_ID,PLAYER,Year,Season_type,PTS
1,10,A,2021-22,Playoffs,
1,10,A,2022-23,Playoffs,12
`)

	points, err := charts.PlayerTrend(ds, "A", dataset.SeasonTypePlayoffs, "PTS")
	require.NoError(t, err)
	assert.Equal(t, []charts.DataPoint{{Label: "2022-23", Value: 12}}, points)
}

func TestRenderLineChart(t *testing.T) {
	cfg := charts.DefaultChartConfig()
	cfg.Title = "LeBron James PTS"

	var buf bytes.Buffer
	err := charts.RenderLineChart(&buf, "PTS", []charts.DataPoint{{Label: "2022-23", Value: 1590}}, cfg)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "2022-23")
}

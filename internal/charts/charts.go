// Package charts renders stat trends as interactive go-echarts pages.
package charts

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/filter"
)

// ErrUnknownStat is returned when the requested column is not in the dataset.
var ErrUnknownStat = errors.New("charts: unknown stat column")

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title    string
	Subtitle string
	Width    string
	Height   string
	Theme    string
	Smooth   bool
	Color    string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "900px",
		Height: "400px",
		Theme:  "light",
		Smooth: true,
		Color:  "#5470C6",
	}
}

// DataPoint represents a single data point in a chart.
type DataPoint struct {
	Label string
	Value float64
}

// PlayerTrend returns one point per season for player and seasonType, oldest
// season first. Cells that are not numbers are skipped.
func PlayerTrend(ds *dataset.Dataset, player, seasonType, stat string) ([]DataPoint, error) {
	col := ds.ColumnIndex(stat)
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStat, stat)
	}

	records := filter.SortByYearDescending(filter.BySeasonType(filter.ByPlayer(ds, player), seasonType))
	slices.Reverse(records)

	points := make([]DataPoint, 0, len(records))
	for _, r := range records {
		v, ok := r.Float(col)
		if !ok {
			continue
		}
		points = append(points, DataPoint{Label: r.Year(), Value: v})
	}
	return points, nil
}

// RenderLineChart writes an interactive line chart page to w.
func RenderLineChart(w io.Writer, series string, data []DataPoint, config ChartConfig) error {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithColorsOpts(opts.Colors{config.Color}),
	)

	xLabels := make([]string, len(data))
	yData := make([]opts.LineData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.LineData{Value: point.Value}
	}

	line.SetXAxis(xLabels).
		AddSeries(series, yData).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(config.Smooth),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

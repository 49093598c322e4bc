// Package dashboard wires the views into a binder graph: which signals exist,
// which outputs they drive, and how a path becomes a page.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/binder"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/views"
)

// Input signals, named after the controls that drive them.
const (
	SignalPath             binder.Signal = "url.pathname"
	SignalYear             binder.Signal = "year-dropdown.value"
	SignalSeasonType       binder.Signal = "season-type-dropdown.value"
	SignalPlayerSeasonType binder.Signal = "player-season-type-dropdown.value"
)

// Outputs.
const (
	OutputPage        binder.Output = "page-content"
	OutputStatsTable  binder.Output = "stats-table.data"
	OutputPlayerTable binder.Output = "player-stats-table.data"
)

// Page describes the layout for the current path. Selector options are set only
// for the page that shows them.
type Page struct {
	Route             route.Route    `json:"route"`
	Title             string         `json:"title"`
	YearOptions       *views.Options `json:"year_options,omitempty"`
	SeasonTypeOptions *views.Options `json:"season_type_options,omitempty"`
}

// Options configures a Dashboard.
type Options struct {
	// StrictPlayerRoutes resolves a player route with no records to NotFound.
	StrictPlayerRoutes bool
	Logger             *slog.Logger
}

// Dashboard owns the views over one dataset and the graph that drives them.
type Dashboard struct {
	ds      *dataset.Dataset
	overall *views.Overall
	player  *views.PlayerDetail
	graph   *binder.Graph
	strict  bool
	logger  *slog.Logger
}

// New builds the views and the binder graph over ds.
func New(ds *dataset.Dataset, opts Options) (*Dashboard, error) {
	if ds == nil {
		return nil, errors.New("dashboard: nil dataset")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dashboard{
		ds:      ds,
		overall: views.NewOverall(ds),
		player:  views.NewPlayerDetail(ds),
		strict:  opts.StrictPlayerRoutes,
		logger:  logger.With("component", "dashboard"),
	}

	graph, err := binder.NewGraph(d.defaults(),
		binder.Binding{Output: OutputPage, Inputs: []binder.Signal{SignalPath}, Compute: d.computePage},
		binder.Binding{Output: OutputStatsTable, Inputs: []binder.Signal{SignalYear, SignalSeasonType}, Compute: d.computeOverall},
		binder.Binding{Output: OutputPlayerTable, Inputs: []binder.Signal{SignalPath, SignalPlayerSeasonType}, Compute: d.computePlayer},
	)
	if err != nil {
		return nil, fmt.Errorf("building binder graph: %w", err)
	}
	d.graph = graph
	return d, nil
}

func (d *Dashboard) defaults() binder.Values {
	return binder.Values{
		SignalPath:             route.RootPath,
		SignalYear:             d.overall.YearOptions().Default,
		SignalSeasonType:       d.overall.SeasonTypeOptions().Default,
		SignalPlayerSeasonType: d.player.SeasonTypeOptions().Default,
	}
}

// Dataset returns the dataset the dashboard was built over.
func (d *Dashboard) Dataset() *dataset.Dataset { return d.ds }

// Overall returns the overall view.
func (d *Dashboard) Overall() *views.Overall { return d.overall }

// Player returns the player detail view.
func (d *Dashboard) Player() *views.PlayerDetail { return d.player }

// Graph returns the binder graph.
func (d *Dashboard) Graph() *binder.Graph { return d.graph }

// Strict reports whether unknown players resolve to NotFound.
func (d *Dashboard) Strict() bool { return d.strict }

// Resolve maps an escaped path to a route, applying strict player routes.
func (d *Dashboard) Resolve(escapedPath string) route.Route {
	r := route.Resolve(escapedPath)
	if d.strict && r.Kind == route.PlayerDetail && !d.ds.HasPlayer(r.Player) {
		d.logger.Debug("unknown player in strict mode", "player", r.Player)
		return route.Route{Kind: route.NotFound}
	}
	return r
}

// NewSession starts a binder session. initial overrides the defaults.
func (d *Dashboard) NewSession(ctx context.Context, initial binder.Values) (*binder.Session, binder.Update, error) {
	return d.graph.NewSession(ctx, initial)
}

func (d *Dashboard) computePage(_ context.Context, in binder.Values) (any, error) {
	r := d.Resolve(in[SignalPath])
	page := Page{Route: r}

	switch r.Kind {
	case route.Overall:
		years, seasons := d.overall.YearOptions(), d.overall.SeasonTypeOptions()
		page.Title = "NBA Player Stats"
		page.YearOptions = &years
		page.SeasonTypeOptions = &seasons
	case route.PlayerDetail:
		seasons := d.player.SeasonTypeOptions()
		page.Title = r.Player + " Stats"
		page.SeasonTypeOptions = &seasons
	default:
		page.Title = "404 Page Not Found"
	}
	return page, nil
}

func (d *Dashboard) computeOverall(_ context.Context, in binder.Values) (any, error) {
	return d.overall.Compute(in[SignalYear], in[SignalSeasonType]), nil
}

func (d *Dashboard) computePlayer(_ context.Context, in binder.Values) (any, error) {
	res, err := d.player.Compute(d.Resolve(in[SignalPath]), in[SignalPlayerSeasonType])
	if errors.Is(err, views.ErrNoUpdate) {
		return nil, binder.ErrNoUpdate
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

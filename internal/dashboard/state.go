package dashboard

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/binder"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/views"
)

// Selection carries selector values from a request. Empty fields keep the defaults.
type Selection struct {
	Year       string
	SeasonType string
}

// State is everything a single page render needs.
type State struct {
	Page    Page
	Overall *views.OverallResult
	Player  *views.PlayerResult
}

// State runs one short-lived session for escapedPath and returns the outputs the
// resulting page shows. SeasonType applies to the selector of the page being
// shown, so the player view never inherits the overall selection.
func (d *Dashboard) State(ctx context.Context, escapedPath string, sel Selection) (State, error) {
	initial := binder.Values{SignalPath: escapedPath}
	kind := d.Resolve(escapedPath).Kind

	switch kind {
	case route.Overall:
		if sel.Year != "" {
			initial[SignalYear] = sel.Year
		}
		if sel.SeasonType != "" {
			initial[SignalSeasonType] = sel.SeasonType
		}
	case route.PlayerDetail:
		if sel.SeasonType != "" {
			initial[SignalPlayerSeasonType] = sel.SeasonType
		}
	}

	_, u, err := d.NewSession(ctx, initial)
	if err != nil {
		return State{}, err
	}
	return StateFromOutputs(u.Outputs), nil
}

// StateFromOutputs picks the outputs relevant to the page in outputs. Tables
// that belong to a different page are left nil.
func StateFromOutputs(outputs map[binder.Output]any) State {
	var st State
	st.Page, _ = outputs[OutputPage].(Page)

	switch st.Page.Route.Kind {
	case route.Overall:
		if res, ok := outputs[OutputStatsTable].(views.OverallResult); ok {
			st.Overall = &res
		}
	case route.PlayerDetail:
		if res, ok := outputs[OutputPlayerTable].(views.PlayerResult); ok {
			st.Player = &res
		}
	}
	return st
}

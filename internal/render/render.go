// Package render turns dashboard state into HTML components. The components are
// written in .templ files; run `templ generate` after editing them.
package render

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/views"
)

// NotFoundText is the body shown for any unmatched path.
const NotFoundText = "404 Page Not Found"

// Page renders the page for st, including the shell.
func Page(st dashboard.State) templ.Component {
	title, body := st.Page.Title, templ.Component(nil)
	switch st.Page.Route.Kind {
	case route.Overall:
		body = OverallPage(st.Page, st.Overall)
	case route.PlayerDetail:
		body = PlayerPage(st.Page, st.Player)
	default:
		title, body = NotFoundText, NotFound()
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(title).Render(templ.WithChildren(ctx, body), w)
	})
}

// ChartURL is the trend chart location for a player.
func ChartURL(player, seasonType, stat string) string {
	q := url.Values{}
	q.Set("name", player)
	q.Set("season_type", seasonType)
	q.Set("stat", stat)
	return "/charts/player?" + q.Encode()
}

// String renders c to a string, for tests and small fragments.
func String(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// selected falls back to the selector default when nothing is chosen.
func selected(opts views.Options, value string) string {
	if value == "" {
		return opts.Default
	}
	return value
}

func overallYear(res *views.OverallResult) string {
	if res == nil {
		return ""
	}
	return res.Year
}

func overallSeasonType(res *views.OverallResult) string {
	if res == nil {
		return ""
	}
	return res.SeasonType
}

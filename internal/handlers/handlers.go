package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/charts"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/render"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/pkg/models"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "stats-dashboard"

// SessionCounter reports live sessions for the health endpoint.
type SessionCounter interface {
	GetClientCount() int
	GetMetrics() map[string]interface{}
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	dash     *dashboard.Dashboard
	sessions SessionCounter
	report   dataset.Report
	logger   *slog.Logger
}

// NewHandler creates a new handler with dependencies
func NewHandler(dash *dashboard.Dashboard, sessions SessionCounter, report dataset.Report, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dash:     dash,
		sessions: sessions,
		report:   report,
		logger:   logger.With("component", "handlers"),
	}
}

// Page renders whatever view the request path resolves to. Unmatched paths get
// the 404 page with status 404.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st, err := h.dash.State(r.Context(), r.URL.EscapedPath(), dashboard.Selection{
		Year:       q.Get("year"),
		SeasonType: q.Get("season_type"),
	})
	if err != nil {
		h.logger.Error("building page state", "path", r.URL.EscapedPath(), "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if st.Page.Route.Kind == route.NotFound {
		status = http.StatusNotFound
	}
	templ.Handler(render.Page(st), templ.WithStatus(status)).ServeHTTP(w, r)
}

// HealthCheck returns the health status of the dashboard
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ds := h.dash.Dataset()
	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:         "healthy",
		Service:        ServiceName,
		Source:         h.report.Source,
		Records:        ds.Len(),
		Players:        ds.PlayerCount(),
		ActiveSessions: h.sessions.GetClientCount(),
	})
}

// Metrics returns session metrics and the dataset load report
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.sessions.GetMetrics(),
		"dataset":  h.report,
	})
}

// GetOptions returns the selector values for both views
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	years := h.dash.Overall().YearOptions()
	seasons := h.dash.Overall().SeasonTypeOptions()
	playerSeasons := h.dash.Player().SeasonTypeOptions()

	respondJSON(w, http.StatusOK, models.OptionsResponse{
		Years:             models.SelectorOptions{Options: years.Values, Default: years.Default},
		SeasonTypes:       models.SelectorOptions{Options: seasons.Values, Default: seasons.Default},
		PlayerSeasonTypes: models.SelectorOptions{Options: playerSeasons.Values, Default: playerSeasons.Default},
	})
}

// GetOverall returns the overall table
// Query params: year, season_type (defaults: first encountered)
func (h *Handler) GetOverall(w http.ResponseWriter, r *http.Request) {
	v := h.dash.Overall()
	year := queryOr(r, "year", v.YearOptions().Default)
	seasonType := queryOr(r, "season_type", v.SeasonTypeOptions().Default)

	respondJSON(w, http.StatusOK, v.Compute(year, seasonType))
}

// GetPlayer returns one player's seasons, latest first
// Query params: name (required), season_type
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	name, ok := h.playerParam(w, r)
	if !ok {
		return
	}

	v := h.dash.Player()
	seasonType := queryOr(r, "season_type", v.SeasonTypeOptions().Default)

	res, err := v.Compute(route.Route{Kind: route.PlayerDetail, Player: name}, seasonType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute player view", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ResolveRoute maps an escaped path to its view
// Query params: path (the escaped path, itself query-encoded)
func (h *Handler) ResolveRoute(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path is required", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.dash.Resolve(path))
}

// PlayerChart renders a go-echarts trend of one stat across seasons
// Query params: name (required), season_type, stat (default PTS)
func (h *Handler) PlayerChart(w http.ResponseWriter, r *http.Request) {
	name, ok := h.playerParam(w, r)
	if !ok {
		return
	}
	seasonType := queryOr(r, "season_type", h.dash.Player().SeasonTypeOptions().Default)
	stat := queryOr(r, "stat", "PTS")

	points, err := charts.PlayerTrend(h.dash.Dataset(), name, seasonType, stat)
	if errors.Is(err, charts.ErrUnknownStat) {
		respondError(w, http.StatusBadRequest, "unknown stat column", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build chart", err)
		return
	}

	cfg := charts.DefaultChartConfig()
	cfg.Title = name + " " + stat
	cfg.Subtitle = seasonType

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.RenderLineChart(w, stat, points, cfg); err != nil {
		h.logger.Error("rendering chart", "player", name, "error", err)
	}
}

// playerParam reads the name query param, rejecting unknown players in strict mode.
func (h *Handler) playerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return "", false
	}
	if h.dash.Strict() && !h.dash.Dataset().HasPlayer(name) {
		respondError(w, http.StatusNotFound, "player not found", nil)
		return "", false
	}
	return name, true
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Warn(message, "error", err)
	}

	respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/render"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/pkg/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	router http.Handler
	hub    *hub.Hub
}

func newTestServer(t *testing.T, strict bool) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := quietLogger()
	dash, err := dashboard.New(testutil.MockDataset(t), dashboard.Options{StrictPlayerRoutes: strict, Logger: logger})
	require.NoError(t, err)

	h := hub.NewHub(logger)
	go h.Run(ctx)

	handler := handlers.NewHandler(dash, h, dataset.Report{Source: "fixture", RowsRead: 8, RowsKept: 8}, logger)
	live := handlers.NewLiveHandler(ctx, dash, h, []string{"http://localhost:3000"}, logger)

	return &testServer{
		router: handlers.NewRouter(handler, live, handlers.RouterConfig{
			CORSOrigins: []string{"http://localhost:3000"},
			Logger:      logger,
		}),
		hub: h,
	}
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func TestPage_RootAndOverallAgree(t *testing.T) {
	s := newTestServer(t, false)

	root := s.get(t, "/")
	overall := s.get(t, "/overall-stats")

	assert.Equal(t, http.StatusOK, root.Code)
	assert.Equal(t, http.StatusOK, overall.Code)
	assert.Equal(t, root.Body.String(), overall.Body.String())
	assert.Contains(t, root.Body.String(), `id="stats-table"`)
	assert.Contains(t, root.Header().Get("Content-Type"), "text/html")
}

func TestPage_OverallSelection(t *testing.T) {
	s := newTestServer(t, false)

	w := s.get(t, "/overall-stats?year=2022-23&season_type=Playoffs")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Nikola Jokić</a>")
	assert.NotContains(t, body, "LeBron James</a>")
}

func TestPage_Player(t *testing.T) {
	s := newTestServer(t, false)

	w := s.get(t, "/player/LeBron%20James")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>LeBron James Stats</h1>")
	assert.Contains(t, w.Body.String(), `id="player-stats-table"`)
}

func TestPage_NotFound(t *testing.T) {
	s := newTestServer(t, false)

	for _, path := range []string{"/anything-else", "/player/", "/overall-stats/extra"} {
		w := s.get(t, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), render.NotFoundText, path)
	}
}

func TestPage_StrictUnknownPlayer(t *testing.T) {
	lenient := newTestServer(t, false).get(t, "/player/Michael%20Jordan")
	strict := newTestServer(t, true).get(t, "/player/Michael%20Jordan")

	assert.Equal(t, http.StatusOK, lenient.Code)
	assert.Contains(t, lenient.Body.String(), "Michael Jordan Stats")
	assert.Equal(t, http.StatusNotFound, strict.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, false)

	w := s.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, handlers.ServiceName, resp.Service)
	assert.Equal(t, 8, resp.Records)
	assert.Equal(t, 4, resp.Players)
	assert.Equal(t, "fixture", resp.Source)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, false)

	w := s.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string]map[string]any](t, w)
	assert.Contains(t, resp["sessions"], "active_clients")
	assert.Equal(t, float64(8), resp["dataset"]["rows_kept"])
}

func TestGetOptions(t *testing.T) {
	s := newTestServer(t, false)

	resp := decode[models.OptionsResponse](t, s.get(t, "/api/v1/options"))

	assert.Equal(t, []string{"2023-24", "2022-23"}, resp.Years.Options)
	assert.Equal(t, "2023-24", resp.Years.Default)
	assert.Equal(t, dataset.SeasonTypeRegular, resp.SeasonTypes.Default)
	assert.Equal(t, dataset.SeasonTypeRegular, resp.PlayerSeasonTypes.Default)
}

type tableJSON struct {
	Columns []string `json:"columns"`
	Rows    [][]struct {
		Value string `json:"value"`
		Link  *struct {
			Path  string `json:"path"`
			Label string `json:"label"`
		} `json:"link"`
	} `json:"rows"`
}

func TestGetOverall(t *testing.T) {
	s := newTestServer(t, false)

	resp := decode[struct {
		Year       string    `json:"year"`
		SeasonType string    `json:"season_type"`
		Table      tableJSON `json:"table"`
	}](t, s.get(t, "/api/v1/overall?year=2023-24&season_type=Regular+Season"))

	assert.Equal(t, "2023-24", resp.Year)
	require.Len(t, resp.Table.Rows, 4)
	assert.NotContains(t, resp.Table.Columns, "Year")

	player := resp.Table.Rows[3][2]
	assert.Equal(t, "D'Angelo Russell", player.Value)
	require.NotNil(t, player.Link)
	assert.Equal(t, "/player/D%27Angelo%20Russell", player.Link.Path)
}

func TestGetOverall_Defaults(t *testing.T) {
	s := newTestServer(t, false)

	resp := decode[struct {
		Year       string `json:"year"`
		SeasonType string `json:"season_type"`
	}](t, s.get(t, "/api/v1/overall"))

	assert.Equal(t, "2023-24", resp.Year)
	assert.Equal(t, dataset.SeasonTypeRegular, resp.SeasonType)
}

func TestGetPlayer(t *testing.T) {
	s := newTestServer(t, false)

	resp := decode[struct {
		Player string    `json:"player"`
		Label  string    `json:"label"`
		Table  tableJSON `json:"table"`
	}](t, s.get(t, "/api/v1/player?name="+url.QueryEscape("Nikola Jokić")))

	assert.Equal(t, "Nikola Jokić Stats", resp.Label)
	require.Len(t, resp.Table.Rows, 2)
	assert.Equal(t, "Year", resp.Table.Columns[0])
	assert.Equal(t, "2023-24", resp.Table.Rows[0][0].Value)
	assert.Equal(t, "2022-23", resp.Table.Rows[1][0].Value)
}

func TestGetPlayer_Errors(t *testing.T) {
	w := newTestServer(t, false).get(t, "/api/v1/player")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name is required", decode[models.ErrorResponse](t, w).Message)

	w = newTestServer(t, true).get(t, "/api/v1/player?name=Nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, decode[models.ErrorResponse](t, w).Code)
}

func TestResolveRoute(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		path   string
		kind   string
		player string
	}{
		{"/", "overall", ""},
		{"/overall-stats", "overall", ""},
		{"/player/LeBron%20James", "player", "LeBron James"},
		{"/elsewhere", "not_found", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.get(t, "/api/v1/route?path="+url.QueryEscape(tt.path))
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[map[string]string](t, w)
			assert.Equal(t, tt.kind, resp["kind"])
			assert.Equal(t, tt.player, resp["player"])
		})
	}

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/route").Code)
}

func TestPlayerChart(t *testing.T) {
	s := newTestServer(t, false)

	w := s.get(t, "/charts/player?name=LeBron+James&stat=REB")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")

	w = s.get(t, "/charts/player?name=LeBron+James&stat=NOPE")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/options", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLiveSession(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?path=" + url.QueryEscape("/")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// every output once on connect
	first := read()
	require.Equal(t, models.MessageTypeOutputs, first["type"])
	payload := first["payload"].(map[string]any)
	outputs := payload["outputs"].(map[string]any)
	assert.Contains(t, outputs, string(dashboard.OutputPage))
	assert.Contains(t, outputs, string(dashboard.OutputStatsTable))
	assert.Equal(t, []any{string(dashboard.OutputPlayerTable)}, payload["skipped"])

	assert.Eventually(t, func() bool { return s.hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    models.MessageTypeNavigate,
		"payload": map[string]string{"path": "/player/Shai%20Gilgeous-Alexander"},
	}))

	next := read()
	require.Equal(t, models.MessageTypeOutputs, next["type"])
	outputs = next["payload"].(map[string]any)["outputs"].(map[string]any)
	player := outputs[string(dashboard.OutputPlayerTable)].(map[string]any)
	assert.Equal(t, "Shai Gilgeous-Alexander Stats", player["label"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	errMsg := read()
	assert.Equal(t, models.MessageTypeError, errMsg["type"])
}

func TestLiveSession_RejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

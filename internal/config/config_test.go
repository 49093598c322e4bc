package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/config"
)

var envKeys = []string{
	"CONFIG_FILE", "DASHBOARD_ADDR", "CORS_ORIGINS", "DATA_SOURCE", "DATA_TABLE",
	"REDIS_URL", "SNAPSHOT_TTL", "RATE_LIMIT_ENABLED", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"STRICT_PLAYER_ROUTES", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable LoadConfig reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":8050" {
		t.Errorf("Expected default server addr ':8050', got '%s'", cfg.Server.Addr)
	}
	if cfg.Data.Source != "csv files/nba_player_stats.csv" {
		t.Errorf("Expected default data source, got '%s'", cfg.Data.Source)
	}
	if cfg.Data.Table != "player_stats" {
		t.Errorf("Expected default table 'player_stats', got '%s'", cfg.Data.Table)
	}
	if cfg.Redis.URL != "" {
		t.Errorf("Expected redis disabled by default, got '%s'", cfg.Redis.URL)
	}
	if cfg.SnapshotTTL() != 24*time.Hour {
		t.Errorf("Expected 24h snapshot ttl, got %v", cfg.SnapshotTTL())
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RPS != 20 || cfg.RateLimit.Burst != 40 {
		t.Errorf("Unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Views.StrictPlayerRoutes {
		t.Error("Expected strict player routes off by default")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Unexpected CORS defaults: %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadConfig_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DASHBOARD_ADDR", ":9090")
	t.Setenv("DATA_SOURCE", "postgres://localhost/stats")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SNAPSHOT_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("STRICT_PLAYER_ROUTES", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected server addr ':9090', got '%s'", cfg.Server.Addr)
	}
	if cfg.Data.Source != "postgres://localhost/stats" {
		t.Errorf("Expected custom data source, got '%s'", cfg.Data.Source)
	}
	if cfg.SnapshotTTL() != 30*time.Minute {
		t.Errorf("Expected 30m ttl, got %v", cfg.SnapshotTTL())
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Errorf("Expected two trimmed origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.RateLimit.Burst != 5 {
		t.Errorf("Unexpected rate limit: %+v", cfg.RateLimit)
	}
	if !cfg.Views.StrictPlayerRoutes {
		t.Error("Expected strict player routes on")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, `
[server]
addr = ":7000"

[data]
source = "sqlite:///var/lib/stats.db"

[rate_limit]
enabled = false

[views]
strict_player_routes = true
`))
	t.Setenv("DASHBOARD_ADDR", ":7100")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":7100" {
		t.Errorf("Expected env to win over file, got '%s'", cfg.Server.Addr)
	}
	if cfg.Data.Source != "sqlite:///var/lib/stats.db" {
		t.Errorf("Expected file data source, got '%s'", cfg.Data.Source)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected file to disable rate limiting")
	}
	if !cfg.Views.StrictPlayerRoutes {
		t.Error("Expected file to enable strict player routes")
	}
	if cfg.Data.Table != "player_stats" {
		t.Errorf("Expected default to survive file load, got '%s'", cfg.Data.Table)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad bool", map[string]string{"STRICT_PLAYER_ROUTES": "maybe"}},
		{"bad rps", map[string]string{"RATE_LIMIT_RPS": "fast"}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
		{"bad ttl", map[string]string{"SNAPSHOT_TTL": "forever"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}},
		{"missing file", map[string]string{"CONFIG_FILE": "/does/not/exist.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := config.LoadConfig(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "[server\naddr = "))

	if _, err := config.LoadConfig(); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := config.LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected info to be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("Expected JSON output, got %q", out)
	}
}

package models

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Source         string `json:"source"`
	Records        int    `json:"records"`
	Players        int    `json:"players"`
	ActiveSessions int    `json:"active_sessions"`
}

// OptionsResponse lists selector values for both views.
type OptionsResponse struct {
	Years             SelectorOptions `json:"years"`
	SeasonTypes       SelectorOptions `json:"season_types"`
	PlayerSeasonTypes SelectorOptions `json:"player_season_types"`
}

// SelectorOptions mirrors a dropdown: the values and the preselected one.
type SelectorOptions struct {
	Options []string `json:"options"`
	Default string   `json:"default"`
}

// Package route maps request paths to the dashboard's views.
package route

import (
	"net/url"
	"strings"
)

// Kind is the view a path resolves to.
type Kind int

const (
	NotFound Kind = iota
	Overall
	PlayerDetail
)

const (
	RootPath     = "/"
	OverallPath  = "/overall-stats"
	PlayerPrefix = "/player/"
)

func (k Kind) String() string {
	switch k {
	case Overall:
		return "overall"
	case PlayerDetail:
		return "player"
	default:
		return "not_found"
	}
}

// Route is the resolved view. Player is set only for PlayerDetail.
type Route struct {
	Kind   Kind   `json:"kind"`
	Player string `json:"player,omitempty"`
}

// MarshalText lets Kind appear as a string in JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Resolve maps an escaped path (as from url.URL.EscapedPath) to a Route.
// It keeps no state between calls.
func Resolve(escapedPath string) Route {
	switch escapedPath {
	case RootPath, OverallPath:
		return Route{Kind: Overall}
	}

	rest, ok := strings.CutPrefix(escapedPath, PlayerPrefix)
	if !ok || rest == "" {
		return Route{Kind: NotFound}
	}

	player, err := url.PathUnescape(rest)
	if err != nil || player == "" {
		return Route{Kind: NotFound}
	}
	return Route{Kind: PlayerDetail, Player: player}
}

// PlayerPath is the link target for a player's detail view. Resolve(PlayerPath(n))
// yields PlayerDetail(n) for any n.
func PlayerPath(player string) string {
	return PlayerPrefix + url.PathEscape(player)
}

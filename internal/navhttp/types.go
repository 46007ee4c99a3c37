// Package navhttp exposes the route-query and tile-exists endpoints
// over plain JSON, using net/http's ServeMux — no router dependency.
package navhttp

import "github.com/udisondev/navroute/internal/search"

// Coord is a world-coordinate point, used for both request inputs and
// response waypoints.
type Coord struct {
	WX    int32 `json:"wx"`
	WY    int32 `json:"wy"`
	Plane int32 `json:"plane"`
}

// RequirementInput is one caller-supplied predicate key/value pair.
type RequirementInput struct {
	Key   string `json:"key"`
	Value int32  `json:"value"`
}

// Profile carries the caller's satisfied-predicate inputs.
type Profile struct {
	Requirements []RequirementInput `json:"requirements"`
}

// RouteOptions mirrors RouteRequest.options.
type RouteOptions struct {
	ReturnGeometry *bool   `json:"return_geometry,omitempty"`
	OnlyActions    bool    `json:"only_actions,omitempty"`
	Weight         float32 `json:"weight,omitempty"`
	Seed           *uint64 `json:"seed,omitempty"`
}

// ResourceSpec mirrors RouteRequest's optional surge/dive block.
type ResourceSpec struct {
	Enabled    bool   `json:"enabled"`
	Charges    uint8  `json:"charges,omitempty"`
	CooldownMs uint32 `json:"cooldown_ms"`
}

// RouteRequest is the wire shape of a route query.
type RouteRequest struct {
	Start   Coord         `json:"start"`
	Goal    Coord         `json:"goal"`
	Profile Profile       `json:"profile"`
	Options RouteOptions  `json:"options"`
	Surge   *ResourceSpec `json:"surge,omitempty"`
	Dive    *ResourceSpec `json:"dive,omitempty"`
}

// ActionTo is the Action.to field: a point, or inclusive bounds when
// the action targets an area.
type ActionTo struct {
	Max [3]int32  `json:"max"`
	Min *[3]int32 `json:"min,omitempty"`
}

// Action is the wire shape of one reconstructed route step.
type Action struct {
	Type                string   `json:"type"`
	CostMs              uint32   `json:"cost_ms"`
	To                  ActionTo `json:"to"`
	InteractionTargetID uint32   `json:"interaction_target_id,omitempty"`
	Hint                string   `json:"hint,omitempty"`
}

// Stats is RouteResponse.stats.
type Stats struct {
	Expanded      uint32 `json:"expanded"`
	DurationUs    uint32 `json:"duration_us"`
	HeuristicHits uint32 `json:"heuristic_hits"`
}

// RouteResponse is the wire shape returned to the caller.
type RouteResponse struct {
	Status  string   `json:"status"`
	CostMs  uint32   `json:"cost_ms"`
	Path    []Coord  `json:"path,omitempty"`
	Actions []Action `json:"actions"`
	Stats   Stats    `json:"stats"`
}

// TileExistsRequest is the wire shape of the tile-exists probe's input.
type TileExistsRequest struct {
	X     int32 `json:"x"`
	Y     int32 `json:"y"`
	Plane int32 `json:"plane"`
}

// TileExistsResponse is the wire shape of the tile-exists probe's
// output.
type TileExistsResponse struct {
	Exists bool    `json:"exists"`
	NodeID *uint32 `json:"node_id,omitempty"`
}

func toResourceConfig(s *ResourceSpec) search.ResourceConfig {
	if s == nil {
		return search.ResourceConfig{}
	}
	return search.ResourceConfig{
		Enabled:        s.Enabled,
		InitialCharges: s.Charges,
		CooldownMs:     s.CooldownMs,
	}
}

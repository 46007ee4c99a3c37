package navhttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/udisondev/navroute/internal/requirement"
	"github.com/udisondev/navroute/internal/search"
	"github.com/udisondev/navroute/internal/snapshot"
	"github.com/udisondev/navroute/internal/tileindex"
)

// Config bounds one handler's behavior. A zero DefaultTimeoutMs means a
// 10s per-query timeout; a zero MaxExpansions means the search's own
// 5,000,000-expansion budget.
type Config struct {
	MaxExpansions    uint32
	DefaultTimeoutMs uint32
}

// Handler owns the shared, immutable resources a route query needs:
// the graph, the tile index, the context pool, and the requirement
// dictionary.
type Handler struct {
	graph   *snapshot.Graph
	tiles   *tileindex.TileIndex
	pool    *search.Pool
	dict    *requirement.Dictionary
	cfg     Config
	log     *slog.Logger
	counter atomic.Uint64 // total queries served, for /debug/stats
}

// NewHandler builds the route-query ServeMux, grounded on the pack's
// http_handlers.go idiom (net/http.NewServeMux, a shared httpError
// helper, hand-marshaled JSON).
func NewHandler(graph *snapshot.Graph, tiles *tileindex.TileIndex, pool *search.Pool, dict *requirement.Dictionary, cfg Config, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{graph: graph, tiles: tiles, pool: pool, dict: dict, cfg: cfg, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/route", h.handleRoute)
	mux.HandleFunc("/tiles/exists", h.handleTileExists)
	mux.HandleFunc("/debug/stats", h.handleDebugStats)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (h *Handler) handleDebugStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		QueriesServed uint64 `json:"queries_served"`
		NodeCount     uint32 `json:"node_count"`
		LandmarkCount uint32 `json:"landmark_count"`
	}{
		QueriesServed: h.counter.Load(),
		NodeCount:     h.graph.NodeCount,
		LandmarkCount: h.graph.LandmarkCount,
	})
}

func (h *Handler) handleTileExists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httpError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TileExistsRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.X = int32(parseIntOr(q.Get("x"), 0))
		req.Y = int32(parseIntOr(q.Get("y"), 0))
		req.Plane = int32(parseIntOr(q.Get("plane"), 0))
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, "invalid payload", http.StatusBadRequest)
			return
		}
	}

	exists, nodeID := h.tiles.Lookup(req.X, req.Y, req.Plane)
	resp := TileExistsResponse{Exists: exists}
	if exists {
		id := nodeID
		resp.NodeID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	h.counter.Add(1)

	startExists, startNode := h.tiles.Lookup(req.Start.WX, req.Start.WY, req.Start.Plane)
	if !startExists {
		writeJSON(w, http.StatusOK, RouteResponse{Status: "invalid-start", Actions: []Action{}})
		return
	}
	goalExists, goalNode := h.tiles.Lookup(req.Goal.WX, req.Goal.WY, req.Goal.Plane)
	if !goalExists {
		writeJSON(w, http.StatusOK, RouteResponse{Status: "invalid-goal", Actions: []Action{}})
		return
	}

	weight := req.Options.Weight
	if weight == 0 {
		weight = 1.0
	}
	if weight < 1.0 {
		weight = 1.0
	}
	if weight > 1.5 {
		weight = 1.5
	}

	returnGeometry := true
	if req.Options.ReturnGeometry != nil {
		returnGeometry = *req.Options.ReturnGeometry
	}
	if req.Options.OnlyActions {
		returnGeometry = false
	}

	inputs := make([]requirement.KV, len(req.Profile.Requirements))
	for i, kv := range req.Profile.Requirements {
		inputs[i] = requirement.KV{Key: kv.Key, Value: kv.Value}
	}
	satisfied := h.dict.Mask(inputs)

	timeout := time.Duration(h.cfg.DefaultTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	sctx, err := h.pool.Acquire(deadline)
	if err != nil {
		httpError(w, "busy", http.StatusServiceUnavailable)
		return
	}
	defer h.pool.Release(sctx)

	var cancelFlag atomic.Bool
	done := make(chan struct{})
	go func() {
		select {
		case <-deadline.Done():
			cancelFlag.Store(true)
		case <-done:
		}
	}()

	started := time.Now()
	opts := search.Options{
		Weight:        weight,
		Seed:          req.Options.Seed,
		MaxExpansions: h.cfg.MaxExpansions,
		Surge:         toResourceConfig(req.Surge),
		Dive:          toResourceConfig(req.Dive),
		Satisfied:     satisfied,
		Cancel:        &cancelFlag,
	}

	outcome, err := search.Search(sctx, h.graph, startNode, goalNode, opts)
	close(done)
	if err != nil {
		h.log.Error("search invariant violation", "err", err, "start", startNode, "goal", goalNode)
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	durationUs := uint32(time.Since(started).Microseconds())

	if outcome.Status != search.StatusOK {
		writeJSON(w, http.StatusOK, RouteResponse{
			Status:  string(outcome.Status),
			Actions: []Action{},
			Stats:   Stats{Expanded: outcome.Expanded, DurationUs: durationUs, HeuristicHits: outcome.HeuristicHits},
		})
		return
	}

	tiles, actions, err := search.Reconstruct(h.graph, sctx, startNode, goalNode, returnGeometry)
	if err != nil {
		h.log.Error("reconstruction failed", "err", err, "start", startNode, "goal", goalNode)
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := RouteResponse{
		Status:  "ok",
		CostMs:  outcome.CostMs,
		Actions: toWireActions(actions),
		Stats:   Stats{Expanded: outcome.Expanded, DurationUs: durationUs, HeuristicHits: outcome.HeuristicHits},
	}
	if returnGeometry {
		resp.Path = toWireCoords(tiles)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toWireActions(as []search.Action) []Action {
	out := make([]Action, 0, len(as))
	for _, a := range as {
		to := ActionTo{Max: [3]int32{a.To.MaxX, a.To.MaxY, int32(a.To.Plane)}}
		if !a.To.Point() {
			min := [3]int32{a.To.MinX, a.To.MinY, int32(a.To.Plane)}
			to.Min = &min
		}
		out = append(out, Action{
			Type:                a.Type,
			CostMs:              a.CostMs,
			To:                  to,
			InteractionTargetID: a.InteractionTargetID,
			Hint:                a.Hint,
		})
	}
	return out
}

func toWireCoords(ts []search.TileCoord) []Coord {
	out := make([]Coord, 0, len(ts))
	for _, t := range ts {
		out = append(out, Coord{WX: t.X, WY: t.Y, Plane: int32(t.Plane)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w http.ResponseWriter, msg string, code int) {
	http.Error(w, msg, code)
}

func parseIntOr(s string, def int64) int64 {
	if s == "" {
		return def
	}
	var neg bool
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	var v int64
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return def
		}
		v = v*10 + int64(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}

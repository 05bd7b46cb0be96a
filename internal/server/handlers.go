package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/spatial"
	"github.com/zeusync/director/internal/core/state"
	"github.com/zeusync/director/internal/core/systems/physics"
	"github.com/zeusync/director/internal/core/wave"
)

type countersResponse struct {
	director.Counters
	Phase    string             `json:"phase"`
	Entities int                `json:"entities"`
	Index    spatial.Statistics `json:"index"`
}

type pathResponse struct {
	Found bool           `json:"found"`
	Path  []physics.Vec3 `json:"path"`
}

type threatQueueResponse struct {
	Queued  int                     `json:"queued"`
	Threats []director.ThreatRecord `json:"threats"`
}

type pathsRequest struct {
	Requests []director.PathRequest `json:"requests"`
}

type killResponse struct {
	Confirmed bool       `json:"confirmed"`
	Waves     wave.State `json:"waves"`
}

type historyResponse struct {
	Current   *state.Snapshot  `json:"current,omitempty"`
	UndoDepth int              `json:"undo_depth"`
	RedoDepth int              `json:"redo_depth"`
	Metrics   state.Metrics    `json:"metrics"`
	Cache     state.CacheStats `json:"cache"`
}

// saveRequest carries the player fields a director cannot observe. Wave and
// enemy fields are captured from the live director.
type saveRequest struct {
	PlayerHealth  int `json:"player_health"`
	PlayerPoints  int `json:"player_points"`
	CurrentAmmo   int `json:"current_ammo"`
	HolsteredAmmo int `json:"holstered_ammo"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *handlers) handleCounters(w http.ResponseWriter, r *http.Request) {
	var resp countersResponse
	if !h.do(w, r, func(d *director.Director) {
		resp = countersResponse{
			Counters: d.Counters(),
			Phase:    d.Phase().String(),
			Entities: d.Len(),
			Index:    d.IndexStats(),
		}
	}) {
		return
	}
	writeJSON(w, resp)
}

func (h *handlers) handleNearest(w http.ResponseWriter, r *http.Request) {
	pos, err := vec3Param(r, "x", "y", "z", physics.Vec3{})
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	maxDist, err := floatParam(r, "max", -1)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		e     director.Entity
		found bool
	)
	if !h.do(w, r, func(d *director.Director) { e, found = d.FindNearest(pos, maxDist) }) {
		return
	}
	if !found {
		writeError(w, "no entity in range", http.StatusNotFound)
		return
	}
	writeJSON(w, e)
}

func (h *handlers) handleRadius(w http.ResponseWriter, r *http.Request) {
	pos, err := vec3Param(r, "x", "y", "z", physics.Vec3{})
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	radius, err := floatParam(r, "r", -1)
	if err != nil || radius < 0 {
		writeError(w, "r must be a non-negative number", http.StatusBadRequest)
		return
	}

	var out []director.Entity
	if !h.do(w, r, func(d *director.Director) { out = d.FindInRadius(pos, radius) }) {
		return
	}
	if out == nil {
		out = []director.Entity{}
	}
	writeJSON(w, out)
}

func (h *handlers) handleThreats(w http.ResponseWriter, r *http.Request) {
	ref, err := vec3Param(r, "x", "y", "z", h.ref)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := intParam(r, "limit", h.top)
	if err != nil || limit < 0 {
		writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return
	}

	var out []director.ThreatRecord
	if !h.do(w, r, func(d *director.Director) { out = d.SortedByThreat(ref) }) {
		return
	}
	writeJSON(w, topN(out, limit))
}

// handleThreatQueue refills the threat queue against the reference point and
// drains up to limit records, most urgent first.
func (h *handlers) handleThreatQueue(w http.ResponseWriter, r *http.Request) {
	ref, err := vec3Param(r, "x", "y", "z", h.ref)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := intParam(r, "limit", h.top)
	if err != nil || limit < 0 {
		writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return
	}

	resp := threatQueueResponse{Threats: []director.ThreatRecord{}}
	if !h.do(w, r, func(d *director.Director) {
		d.UpdatePriorities(ref)
		resp.Queued = d.ThreatCount()
		for len(resp.Threats) < limit {
			rec, ok := d.NextThreat()
			if !ok {
				break
			}
			resp.Threats = append(resp.Threats, rec)
		}
	}) {
		return
	}
	writeJSON(w, resp)
}

func (h *handlers) handleEntity(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.Atoi(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, "key must be an integer", http.StatusBadRequest)
		return
	}

	var (
		e     director.Entity
		found bool
	)
	if !h.do(w, r, func(d *director.Director) { e, found = d.FindByID(key) }) {
		return
	}
	if !found {
		writeError(w, fmt.Sprintf("no entity with key %d", key), http.StatusNotFound)
		return
	}
	writeJSON(w, e)
}

func (h *handlers) handleEntityByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, "id must be an unsigned integer", http.StatusBadRequest)
		return
	}

	var (
		e     director.Entity
		found bool
	)
	if !h.do(w, r, func(d *director.Director) {
		if key, ok := d.KeyOf(director.EntityID(id)); ok {
			e, found = d.FindByID(key)
		}
	}) {
		return
	}
	if !found {
		writeError(w, fmt.Sprintf("no entity with id %d", id), http.StatusNotFound)
		return
	}
	writeJSON(w, e)
}

func (h *handlers) handlePath(w http.ResponseWriter, r *http.Request) {
	start, err := vec3Param(r, "sx", "sy", "sz", physics.Vec3{})
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	goal, err := vec3Param(r, "gx", "gy", "gz", physics.Vec3{})
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var resp pathResponse
	if !h.do(w, r, func(d *director.Director) { resp.Path, resp.Found = d.FindPath(start, goal) }) {
		return
	}
	if resp.Path == nil {
		resp.Path = []physics.Vec3{}
	}
	writeJSON(w, resp)
}

func (h *handlers) handlePaths(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, "invalid path batch", http.StatusBadRequest)
		return
	}
	if len(req.Requests) == 0 || len(req.Requests) > MaxPathBatch {
		writeError(w, fmt.Sprintf("batch must hold 1..%d requests", MaxPathBatch), http.StatusBadRequest)
		return
	}

	var (
		results []director.PathResult
		err     error
	)
	ctx := r.Context()
	if !h.do(w, r, func(d *director.Director) { results, err = d.FindPaths(ctx, req.Requests) }) {
		return
	}
	if err != nil {
		writeError(w, "path batch cancelled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, results)
}

func (h *handlers) handleWaves(w http.ResponseWriter, r *http.Request) {
	var (
		ws  wave.State
		has bool
	)
	if !h.do(w, r, func(d *director.Director) {
		if c := d.Waves(); c != nil {
			ws, has = c.State(), true
		}
	}) {
		return
	}
	if !has {
		writeError(w, "waves are not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, ws)
}

func (h *handlers) handleKill(w http.ResponseWriter, r *http.Request) {
	var (
		resp killResponse
		has  bool
	)
	if !h.do(w, r, func(d *director.Director) {
		if c := d.Waves(); c != nil {
			resp.Confirmed = c.ConfirmKill()
			resp.Waves, has = c.State(), true
		}
	}) {
		return
	}
	if !has {
		writeError(w, "waves are not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func (h *handlers) handleListSlots(w http.ResponseWriter, r *http.Request) {
	h.stateMu.Lock()
	slots, err := h.state.Slots(r.Context())
	h.stateMu.Unlock()
	if err != nil {
		h.storageError(w, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, slots)
}

// handleSaveSlot captures the live director into a new snapshot and saves
// it under the slot.
func (h *handlers) handleSaveSlot(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if err := state.ValidateSlot(slot); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req saveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	in := state.CaptureInput{
		PlayerHealth:  req.PlayerHealth,
		PlayerPoints:  req.PlayerPoints,
		CurrentAmmo:   req.CurrentAmmo,
		HolsteredAmmo: req.HolsteredAmmo,
	}
	if !h.do(w, r, func(d *director.Director) {
		if c := d.Waves(); c != nil {
			ws := c.State()
			in.CurrentWave, in.WaveKills = ws.Wave, ws.Kills
		}
		for _, e := range d.Entities() {
			if e.Active {
				in.EnemyPositions = append(in.EnemyPositions, e.Position)
			}
		}
	}) {
		return
	}

	h.stateMu.Lock()
	snap := h.state.Capture(in)
	err := h.state.Save(r.Context(), slot)
	h.stateMu.Unlock()
	if err != nil {
		h.storageError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, snap)
}

func (h *handlers) handleLoadSlot(w http.ResponseWriter, r *http.Request) {
	h.stateMu.Lock()
	snap, err := h.state.Load(r.Context(), chi.URLParam(r, "slot"))
	h.stateMu.Unlock()
	if err != nil {
		h.storageError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (h *handlers) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	h.stateMu.Lock()
	err := h.state.Delete(r.Context(), chi.URLParam(r, "slot"))
	h.stateMu.Unlock()
	if err != nil {
		h.storageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleHistory(w http.ResponseWriter, _ *http.Request) {
	h.stateMu.Lock()
	resp := historyResponse{
		UndoDepth: h.state.UndoDepth(),
		RedoDepth: h.state.RedoDepth(),
		Metrics:   h.state.Metrics(),
		Cache:     h.state.CacheStats(),
	}
	if cur, ok := h.state.Current(); ok {
		resp.Current = &cur
	}
	h.stateMu.Unlock()
	writeJSON(w, resp)
}

func (h *handlers) handleUndo(w http.ResponseWriter, _ *http.Request) {
	h.stateMu.Lock()
	snap, ok := h.state.Undo()
	h.stateMu.Unlock()
	if !ok {
		writeError(w, ErrNoHistory.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, snap)
}

func (h *handlers) handleRedo(w http.ResponseWriter, _ *http.Request) {
	h.stateMu.Lock()
	snap, ok := h.state.Redo()
	h.stateMu.Unlock()
	if !ok {
		writeError(w, ErrNoHistory.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, snap)
}

// do runs fn on the director loop. It writes the error response and returns
// false when the loop did not run fn.
func (h *handlers) do(w http.ResponseWriter, r *http.Request, fn func(*director.Director)) bool {
	err := h.runner.Do(r.Context(), fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, director.ErrRunnerStopped):
		writeError(w, "director is stopped", http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		h.logger.Error("director call failed", log.Error(err))
		writeError(w, "internal error", http.StatusInternalServerError)
	}
	return false
}

func (h *handlers) storageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrSlotNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, state.ErrInvalidSlot):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, state.ErrNoState):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("snapshot storage failed", log.Error(err))
		writeError(w, "storage error", http.StatusInternalServerError)
	}
}

func topN[T any](s []T, n int) []T {
	if s == nil {
		return []T{}
	}
	if n < len(s) {
		return s[:n]
	}
	return s
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadParameter, name)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadParameter, name)
	}
	return v, nil
}

func vec3Param(r *http.Request, x, y, z string, def physics.Vec3) (physics.Vec3, error) {
	var (
		v   physics.Vec3
		err error
	)
	if v.X, err = floatParam(r, x, def.X); err != nil {
		return v, err
	}
	if v.Y, err = floatParam(r, y, def.Y); err != nil {
		return v, err
	}
	if v.Z, err = floatParam(r, z, def.Z); err != nil {
		return v, err
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}

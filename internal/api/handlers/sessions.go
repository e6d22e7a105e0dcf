// Package handlers contains the HTTP handler implementations for the
// RainScout API. Sessions are the unit of state: each one wraps a planner
// session and every planning operation is addressed to a session ID.
// Sessions live in memory only.
package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"rainscout/internal/core"
	"rainscout/internal/planner"
	"rainscout/internal/types"
)

// SessionFactory creates a fresh planner session with its wired
// collaborators. Injected so tests can substitute doubles.
type SessionFactory func() *planner.Session

// SessionStore is the in-memory registry of live sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*planner.Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*planner.Session)}
}

// Get returns the session for id or a not-found error.
func (s *SessionStore) Get(id string) (*planner.Session, *types.AppError) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundSession,
			"no session with that ID", nil)
	}
	return sess, nil
}

// Put registers a session under its ID.
func (s *SessionStore) Put(sess *planner.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

// Remove deletes and returns the session for id, nil if absent.
func (s *SessionStore) Remove(id string) *planner.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	return sess
}

// CloseAll closes every live session and empties the store. Used during
// server shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// --- Request Models ---

// SearchInputRequest is the body for POST /sessions/{id}/search/input.
// Length gating lives in the search engine, not here; any string is
// accepted and short ones simply clear the suggestion list.
type SearchInputRequest struct {
	Query string `json:"query"`
}

// SearchSelectRequest commits one suggestion as the session location.
type SearchSelectRequest struct {
	Label string  `json:"label" validate:"required"`
	Lat   float64 `json:"lat" validate:"min=-90,max=90"`
	Lon   float64 `json:"lon" validate:"min=-180,max=180"`
}

// MapPickRequest is the body for POST /sessions/{id}/map/pick. Range checks
// live in the pick flow so out-of-range coordinates surface with their
// specific validation codes.
type MapPickRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ScanRequest is the body for POST /sessions/{id}/scan.
type ScanRequest struct {
	Activity string `json:"activity"`
}

// SelectAlternativeRequest picks a scanned candidate by rank.
type SelectAlternativeRequest struct {
	Index int `json:"index" validate:"min=0"`
}

// --- Handler ---

// SessionHandler manages planning session lifecycle and operations.
type SessionHandler struct {
	store      *SessionStore
	newSession SessionFactory
	validator  *core.Validator
	logger     *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(store *SessionStore, factory SessionFactory, validator *core.Validator, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		store:      store,
		newSession: factory,
		validator:  validator,
		logger:     logger,
	}
}

// RegisterRoutes mounts the session routes on the provided chi.Router.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Post("/search/input", h.SearchInput)
			r.Post("/search/select", h.SearchSelect)
			r.Post("/map/pick", h.MapPick)
			r.Patch("/parameters", h.UpdateParameters)
			r.Post("/compute", h.Compute)
			r.Post("/scan", h.Scan)
			r.Post("/alternatives/select", h.SelectAlternative)
		})
	})
}

// session resolves the {id} path parameter to a live session.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) *planner.Session {
	id := chi.URLParam(r, "id")
	sess, err := h.store.Get(id)
	if err != nil {
		core.Error(w, r, err)
		return nil
	}
	return sess
}

// Create starts a new planning session and returns its initial snapshot.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.newSession()
	h.store.Put(sess)

	snap, err := sess.Snapshot()
	if err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session created", "session_id", sess.ID())
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: snap})
}

// Get returns the full session snapshot.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	snap, err := sess.Snapshot()
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: snap})
}

// Delete closes and removes a session.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := h.store.Remove(id)
	if sess == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundSession,
			"no session with that ID", nil))
		return
	}
	sess.Close()

	h.logger.InfoContext(r.Context(), "session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SearchInput feeds a search text change; the debounced lookup runs in the
// background and suggestions surface on the snapshot.
func (h *SessionHandler) SearchInput(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req SearchInputRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	// The lookup outlives this request; the session bounds its lifetime.
	if err := sess.SearchInput(req.Query); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SearchSelect commits a suggestion into the authoritative location.
func (h *SessionHandler) SearchSelect(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req SearchSelectRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	state, err := sess.SearchSelect(types.Suggestion{
		Label: req.Label,
		Point: types.GeoPoint{Lat: req.Lat, Lon: req.Lon},
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: state})
}

// MapPick applies a tapped point and returns the provisional location.
func (h *SessionHandler) MapPick(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req MapPickRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	state, err := sess.MapPick(req.Lat, req.Lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: state})
}

// UpdateParameters merges a partial parameter edit.
func (h *SessionHandler) UpdateParameters(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var patch planner.ParameterPatch
	if err := core.DecodeJSON(w, r, &patch); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(patch); err != nil {
		core.Error(w, r, err)
		return
	}

	params, err := sess.SetParameters(patch)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: params})
}

// Compute runs the primary risk query and returns the validated result.
func (h *SessionHandler) Compute(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	result, err := sess.Compute(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// Scan runs the alternative-location scan for the given activity.
func (h *SessionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req ScanRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	set, err := sess.Scan(r.Context(), req.Activity)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: set})
}

// SelectAlternative commits a scanned candidate as the session location.
func (h *SessionHandler) SelectAlternative(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req SelectAlternativeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	state, err := sess.SelectAlternative(req.Index)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: state})
}

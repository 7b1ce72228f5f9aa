package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jpatrickfarrell/jat/internal/logging"
	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/jpatrickfarrell/jat/internal/state"
	"github.com/jpatrickfarrell/jat/internal/tmux"
	"github.com/sirupsen/logrus"
)

// maxCaptureLines caps a single output request.
const maxCaptureLines = 2000

// APIHandler serves the JSON API under /api/.
type APIHandler struct {
	fetcher   Fetcher
	ops       SessionOps
	store     *signal.Store
	overrides *state.OverrideStore

	captureLines int
	log          *logrus.Entry
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(fetcher Fetcher, ops SessionOps, store *signal.Store, overrides *state.OverrideStore, captureLines int) *APIHandler {
	if captureLines <= 0 {
		captureLines = 200
	}
	return &APIHandler{
		fetcher:      fetcher,
		ops:          ops,
		store:        store,
		overrides:    overrides,
		captureLines: captureLines,
		log:          logging.NewLogger("api"),
	}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP routes API requests.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case path == "/sessions" && r.Method == http.MethodGet:
		h.handleSessions(w, r)
	case path == "/signals" && r.Method == http.MethodPost:
		h.handleSignalIngest(w, r)
	case path == "/signals" && r.Method == http.MethodGet:
		h.handleSignalList(w, r)
	case path == "/timeline" && r.Method == http.MethodGet:
		h.handleTimeline(w, r)
	case path == "/mail" && r.Method == http.MethodGet:
		h.handleMail(w, r)
	case strings.HasPrefix(path, "/sessions/"):
		h.handleSessionOp(w, r, strings.TrimPrefix(path, "/sessions/"))
	default:
		h.sendError(w, "not found", http.StatusNotFound)
	}
}

// handleSessionOp dispatches /api/sessions/{name}/{op} requests.
func (h *APIHandler) handleSessionOp(w http.ResponseWriter, r *http.Request, rest string) {
	name, op, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		h.sendError(w, "not found", http.StatusNotFound)
		return
	}

	switch {
	case op == "output" && r.Method == http.MethodGet:
		h.handleOutput(w, r, name)
	case op == "keys" && r.Method == http.MethodPost:
		h.handleKeys(w, r, name)
	case op == "resize" && r.Method == http.MethodPost:
		h.handleResize(w, r, name)
	case op == "kill" && r.Method == http.MethodPost:
		h.handleKill(w, r, name)
	case op == "complete" && r.Method == http.MethodPost:
		h.handleComplete(w, r, name)
	default:
		h.sendError(w, "not found", http.StatusNotFound)
	}
}

// SessionsResponse is the JSON body for GET /api/sessions.
type SessionsResponse struct {
	Sessions []SessionRow `json:"sessions"`
	Total    int          `json:"total"`
}

func (h *APIHandler) handleSessions(w http.ResponseWriter, _ *http.Request) {
	rows, err := h.fetcher.FetchSessions()
	if err != nil {
		h.log.WithError(err).Warn("listing sessions failed")
		h.sendError(w, "listing sessions failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, SessionsResponse{Sessions: rows, Total: len(rows)})
}

// SignalResponse is the JSON body for POST /api/signals.
type SignalResponse struct {
	Stored bool           `json:"stored"`
	State  state.Activity `json:"state"`
}

// handleSignalIngest accepts one signal from an agent hook. Stale
// signals are acknowledged but not stored.
func (h *APIHandler) handleSignalIngest(w http.ResponseWriter, r *http.Request) {
	var sig signal.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		h.sendError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	stored, err := h.store.Ingest(sig)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resolved := state.FromSignalType(sig.Type)
	if stored {
		h.overrides.Observe(sig.Session, resolved)
	}
	h.writeJSON(w, SignalResponse{Stored: stored, State: resolved})
}

// SignalListResponse is the JSON body for GET /api/signals.
type SignalListResponse struct {
	Signals map[string]signal.Record `json:"signals"`
}

func (h *APIHandler) handleSignalList(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, SignalListResponse{Signals: h.store.All()})
}

func (h *APIHandler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultFeedLimit)
	result, err := h.fetcher.FetchTimeline(limit)
	if err != nil {
		h.log.WithError(err).Warn("merging timeline failed")
		h.sendError(w, "merging timeline failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, result)
}

func (h *APIHandler) handleMail(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.fetcher.FetchMail(queryInt(r, "limit", 50))
	if err != nil {
		h.log.WithError(err).Warn("fetching mail failed")
		h.sendError(w, "fetching mail failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, msgs)
}

// OutputResponse is the JSON body for GET /api/sessions/{name}/output.
type OutputResponse struct {
	Session string `json:"session"`
	Output  string `json:"output"`
}

func (h *APIHandler) handleOutput(w http.ResponseWriter, r *http.Request, name string) {
	lines := queryInt(r, "lines", h.captureLines)
	if lines > maxCaptureLines {
		lines = maxCaptureLines
	}
	out, err := h.ops.CapturePane(name, lines)
	if err != nil {
		h.sessionOpError(w, name, err)
		return
	}
	h.writeJSON(w, OutputResponse{Session: name, Output: out})
}

// KeysRequest is the JSON body for POST /api/sessions/{name}/keys.
type KeysRequest struct {
	Text string `json:"text"`
	// Raw sends key names like "C-c" instead of literal text.
	Raw bool `json:"raw,omitempty"`
}

func (h *APIHandler) handleKeys(w http.ResponseWriter, r *http.Request, name string) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		h.sendError(w, "text must not be empty", http.StatusBadRequest)
		return
	}

	var err error
	if req.Raw {
		err = h.ops.SendKeysRaw(name, req.Text)
	} else {
		err = h.ops.SendKeys(name, req.Text)
	}
	if err != nil {
		h.sessionOpError(w, name, err)
		return
	}
	h.writeJSON(w, map[string]bool{"sent": true})
}

// ResizeRequest is the JSON body for POST /api/sessions/{name}/resize.
type ResizeRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func (h *APIHandler) handleResize(w http.ResponseWriter, r *http.Request, name string) {
	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.ops.ResizePane(name, req.Cols, req.Rows); err != nil {
		h.sessionOpError(w, name, err)
		return
	}
	h.writeJSON(w, map[string]bool{"resized": true})
}

func (h *APIHandler) handleKill(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.ops.KillSession(name); err != nil {
		h.sessionOpError(w, name, err)
		return
	}
	h.store.Forget(name)
	h.overrides.Clear(name)
	h.writeJSON(w, map[string]bool{"killed": true})
}

// CompleteResponse is the JSON body for POST /api/sessions/{name}/complete.
type CompleteResponse struct {
	Session string         `json:"session"`
	State   state.Activity `json:"state"`
}

// handleComplete asks the agent to wrap up and sets an optimistic
// completing override so the UI reflects the request immediately, before
// the agent's own signals catch up.
func (h *APIHandler) handleComplete(w http.ResponseWriter, r *http.Request, name string) {
	exists, err := h.ops.HasSession(name)
	if err != nil {
		h.sessionOpError(w, name, err)
		return
	}
	if !exists {
		h.sendError(w, "session not found", http.StatusNotFound)
		return
	}

	var req KeysRequest
	// Body is optional; a custom prompt can replace the default nudge.
	_ = json.NewDecoder(r.Body).Decode(&req)
	prompt := req.Text
	if prompt == "" {
		prompt = "Please finish your current task, commit your work, and summarize what you did."
	}
	if err := h.ops.SendKeys(name, prompt); err != nil {
		h.sessionOpError(w, name, err)
		return
	}

	h.overrides.Set(name, state.Completing)
	h.writeJSON(w, CompleteResponse{Session: name, State: state.Completing})
}

// sessionOpError maps tmux errors to HTTP statuses.
func (h *APIHandler) sessionOpError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, tmux.ErrSessionNotFound), errors.Is(err, tmux.ErrNoServer):
		h.sendError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, tmux.ErrInvalidSessionName):
		h.sendError(w, "invalid session name", http.StatusBadRequest)
	default:
		h.log.WithError(err).WithField("session", name).Warn("session operation failed")
		h.sendError(w, "session operation failed", http.StatusInternalServerError)
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("encoding response failed")
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/platform/errors/i18n"
	"github.com/louisbranch/courtside/internal/platform/requestctx"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/session"
	"github.com/louisbranch/courtside/internal/services/scoring/service"
)

// maxSnapshotBytes caps imported snapshot bodies.
const maxSnapshotBytes = 8 << 20

// maxRequestBytes caps every other JSON body.
const maxRequestBytes = 64 << 10

var errNotFound = apperrors.New(apperrors.CodeNotFound, "route not found")

// Handler serves the scoring HTTP endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler wraps svc.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

type addPlayerRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type courtsRequest struct {
	Count int `json:"count"`
}

// roundRequest is the layout as the client last read it, with a score on
// every court.
type roundRequest struct {
	Courts []round.CourtResult `json:"courts"`
}

// layoutResponse adds a localized notice when the layout has no courts.
type layoutResponse struct {
	service.LayoutView
	Notice string `json:"notice,omitempty"`
}

type matchRequest struct {
	TeamA  []string `json:"teamA"`
	TeamB  []string `json:"teamB"`
	ScoreA int      `json:"scoreA"`
	ScoreB int      `json:"scoreB"`
	Kind   string   `json:"kind"`
}

type uiRequest struct {
	ActiveTab string `json:"activeTab"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"session":   h.svc.SessionID(),
		"timestamp": time.Now().UTC(),
	})
}

// GetSession returns the full session. It honors If-None-Match against the
// saved revision.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view := h.svc.Session(r.Context())
	if view.Revision != "" {
		etag := `"` + view.Revision + `"`
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	respondJSON(w, http.StatusOK, view)
}

// SetActiveTab stores the displayed mode.
func (h *Handler) SetActiveTab(w http.ResponseWriter, r *http.Request) {
	var req uiRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := round.ParseMode(req.ActiveTab)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.SetActiveTab(r.Context(), mode); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"activeTab": mode})
}

// ExportSnapshot downloads the snapshot document.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	payload, err := h.svc.ExportSnapshot(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.svc.SessionID()+`.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		log.Printf("write snapshot: %v", err)
	}
}

// ImportSnapshot replaces the session with an uploaded snapshot document.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		respondError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "read snapshot body", err))
		return
	}
	view, err := h.svc.ImportSnapshot(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// AddPlayer appends a player to the roster.
func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req addPlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	player, err := h.svc.AddPlayer(r.Context(), req.Name, req.Color)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, player)
}

// RemovePlayer drops a player from the roster.
func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemovePlayer(r.Context(), chi.URLParam(r, "playerID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlayerHistory lists every court a player appeared on.
func (h *Handler) PlayerHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.PlayerHistory(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// CommitMatch records a fixed 2v2 match.
func (h *Handler) CommitMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.CommitMatch(r.Context(), session.MatchInput{
		TeamA: round.Team(req.TeamA),
		TeamB: round.Team(req.TeamB),
		Score: round.Score{A: req.ScoreA, B: req.ScoreB},
		Kind:  req.Kind,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// Standings ranks the roster in one mode.
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	standings, err := h.svc.Standings(r.Context(), mode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"mode": mode, "standings": standings})
}

// Layout returns the tentative layout of a social mode.
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Layout(r.Context(), mode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondLayout(w, r, view)
}

// Reshuffle generates a fresh tentative layout.
func (h *Handler) Reshuffle(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Reshuffle(r.Context(), mode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondLayout(w, r, view)
}

// SetCourts changes the requested court count.
func (h *Handler) SetCourts(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	var req courtsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.svc.SetCourts(r.Context(), mode, req.Count)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondLayout(w, r, view)
}

// CommitRound scores the tentative layout.
func (h *Handler) CommitRound(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	var req roundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CommitRound(r.Context(), mode, req.Courts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// ResetTotals clears the totals of one mode.
func (h *Handler) ResetTotals(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResetTotals(r.Context(), mode); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory empties the record list of one mode.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.ClearHistory(r.Context(), mode); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// negotiateLocale resolves Accept-Language once per request.
func negotiateLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
	})
}

func modeParam(w http.ResponseWriter, r *http.Request) (round.Mode, bool) {
	mode, err := round.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		respondError(w, r, err)
		return "", false
	}
	return mode, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "decode request body", err))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// respondError writes a domain error with its message localized from the
// request's Accept-Language header.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	respondJSON(w, status, errorResponse{Code: code, Message: apperrors.Localize(err, requestLocale(r))})
}

func respondLayout(w http.ResponseWriter, r *http.Request, view service.LayoutView) {
	resp := layoutResponse{LayoutView: view}
	if view.Reason != "" {
		resp.Notice = apperrors.Localize(apperrors.New(view.Reason, "layout has no courts"), requestLocale(r))
	}
	respondJSON(w, http.StatusOK, resp)
}

func requestLocale(r *http.Request) string {
	return requestctx.LocaleFromContext(r.Context(), i18n.MatchLocale(r.Header.Get("Accept-Language")))
}

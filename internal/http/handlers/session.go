package handlers

import (
	"context"
	"net/http"

	"github.com/mwangaza-health/booking-gateway/internal/hospital"
	"github.com/mwangaza-health/booking-gateway/internal/session"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// ProfileFetcher retrieves the patient profile for a bearer token.
// *hospital.Client satisfies it.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, token string) (*hospital.Profile, error)
}

// Session serves the persisted auth state.
type Session struct {
	store    *session.Store
	profiles ProfileFetcher
	logger   *logging.Logger
}

// NewSession creates the session handler set.
func NewSession(store *session.Store, profiles ProfileFetcher, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{store: store, profiles: profiles, logger: logger}
}

type sessionView struct {
	Token           string            `json:"token"`
	User            *hospital.Profile `json:"user"`
	IsAuthenticated bool              `json:"isAuthenticated"`
	State           session.State     `json:"state"`
}

func (h *Session) view() sessionView {
	return sessionView{
		Token:           h.store.Token(),
		User:            h.store.User(),
		IsAuthenticated: h.store.IsAuthenticated(),
		State:           h.store.State(),
	}
}

// Get returns the current session.
func (h *Session) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

type setTokenRequest struct {
	Token string `json:"token"`
}

// SetToken stores a fresh bearer token after login.
func (h *Session) SetToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := h.store.SetToken(r.Context(), req.Token); err != nil {
		h.logger.Error("failed to persist session token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

// SetUser caches the patient profile supplied by the client.
func (h *Session) SetUser(w http.ResponseWriter, r *http.Request) {
	var profile hospital.Profile
	if err := decodeJSON(r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.SetUser(r.Context(), &profile); err != nil {
		h.logger.Error("failed to persist session profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

// RefreshProfile fetches the profile from the hospital API with the
// stored token and caches it.
func (h *Session) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	token := h.store.Token()
	if token == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	profile, err := h.profiles.GetProfile(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to fetch profile", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch profile")
		return
	}
	if err := h.store.SetUser(r.Context(), profile); err != nil {
		h.logger.Error("failed to persist session profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

// Logout clears the session. Remote invalidation inside the store is
// best effort; this endpoint only fails if the cleared state cannot be
// persisted.
func (h *Session) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.logger.Error("failed to persist cleared session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

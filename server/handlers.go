package server

import (
	"encoding/json"
	"net/http"

	"mixtape/config"
	"mixtape/core/auth"
	"mixtape/core/catalog"
	"mixtape/core/updates"
	"mixtape/core/upload"
	"mixtape/logger"
	"mixtape/store"
)

// APIHandler carries the components every request handler needs.
type APIHandler struct {
	cfg       *config.Config
	store     *store.Store
	catalog   *catalog.Catalog
	auth      *auth.Auth
	sessions  *auth.SessionManager
	validator *upload.Validator
	checker   *updates.Checker
}

// NewAPIHandler wires the components together.
func NewAPIHandler(
	cfg *config.Config,
	st *store.Store,
	cat *catalog.Catalog,
	a *auth.Auth,
	sessions *auth.SessionManager,
	validator *upload.Validator,
	checker *updates.Checker,
) *APIHandler {
	return &APIHandler{
		cfg:       cfg,
		store:     st,
		catalog:   cat,
		auth:      a,
		sessions:  sessions,
		validator: validator,
		checker:   checker,
	}
}

// envelope is the uniform command response: status, command, optional error,
// plus command-specific fields.
type envelope map[string]any

// respond writes the JSON envelope for a command.
func (h *APIHandler) respond(w http.ResponseWriter, command string, status bool, errMsg string, extra envelope) {
	body := envelope{
		"status":  status,
		"command": command,
	}
	if errMsg != "" {
		body["error"] = errMsg
	}
	for k, v := range extra {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeJSON writes a plain JSON response for the non-command endpoints.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// currentSession resolves the session cookie into server-side session state.
func (h *APIHandler) currentSession(r *http.Request) (*auth.Session, bool) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return nil, false
	}
	return h.sessions.Get(cookie.Value)
}

// sessionCookieToken returns the raw cookie value, authenticated or not.
// Create consumes it so a pre-login token can never be promoted.
func sessionCookieToken(r *http.Request) string {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie delivers the session token. Secure is set when the
// request already travelled over TLS.
func (h *APIHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie immediately.
func (h *APIHandler) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

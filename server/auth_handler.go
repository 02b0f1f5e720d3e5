package server

import (
	"net/http"

	"mixtape/config"
	"mixtape/logger"
)

// LoginHandler verifies the admin password and creates a session. The
// session identity is always regenerated on login.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !h.auth.IsPasswordSet() {
		h.respond(w, "login", false, "No password configured yet", nil)
		return
	}

	pass := r.FormValue("pass")
	if pass == "" || !h.auth.CheckPassword(pass) {
		logger.Warn("failed login attempt", logger.String("remote", r.RemoteAddr))
		h.respond(w, "login", false, "Bad password", nil)
		return
	}

	session := h.sessions.Create(sessionCookieToken(r))
	h.setSessionCookie(w, r, session.Token)
	logger.Info("admin logged in")
	h.respond(w, "login", true, "", envelope{"csrf_token": session.CSRFToken})
}

// LogoutHandler destroys the session and expires the cookie immediately.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := sessionCookieToken(r); token != "" {
		h.sessions.Destroy(token)
	}
	h.clearSessionCookie(w, r)
	h.respond(w, "logout", true, "", nil)
}

// SessionHandler reports the session state the admin UI needs to render:
// login/password flags, the CSRF token, and the upload size hint.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	body := envelope{
		"logged_in":        false,
		"password_set":     h.auth.IsPasswordSet(),
		"version":          config.Version,
		"max_upload_bytes": h.cfg.MaxUploadHintBytes(),
	}

	if session, ok := h.currentSession(r); ok {
		body["logged_in"] = true
		body["csrf_token"] = session.CSRFToken
	}

	writeJSON(w, body)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"mixtape/core/catalog"
	"mixtape/logger"
	"mixtape/model"
)

// The bootstrap command: the only one permitted without an authenticated
// session, guarded instead by the no-password-exists precondition.
const bootstrapCommand = "create_password"

var (
	hexOnly      = regexp.MustCompile(`[^a-fA-F0-9]`)
	optionKeySet = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// CommandHandler is the single authenticated entry point for admin
// mutations. Every branch answers with the uniform JSON envelope; no error
// escapes to a generic fault page.
func (h *APIHandler) CommandHandler(w http.ResponseWriter, r *http.Request) {
	command := r.FormValue("command")
	argsRaw := r.FormValue("args")
	csrfToken := r.FormValue("csrf_token")

	if command != bootstrapCommand {
		session, ok := h.currentSession(r)
		if !ok {
			h.respond(w, command, false, "Authentication required", nil)
			return
		}
		if !h.sessions.ValidateCSRF(session, csrfToken) {
			logger.Warn("rejected command with bad CSRF token", logger.String("command", command))
			h.respond(w, command, false, "Invalid CSRF token", nil)
			return
		}
	}

	switch command {
	case bootstrapCommand:
		h.handleCreatePassword(w, r, argsRaw)
	case "change_password":
		h.handleChangePassword(w, r, argsRaw, csrfToken)
	case "rename":
		h.handleRename(w, r, argsRaw)
	case "reorder":
		h.handleReorder(w, argsRaw)
	case "delete":
		// The song key is the whole args payload, not nested JSON.
		h.handleDelete(w, argsRaw)
	case "bannercaptioncolor":
		h.handleBannerCaptionColor(w, r)
	case "set_option":
		h.handleSetOption(w, argsRaw)
	case "check_updates":
		h.handleCheckUpdates(w)
	case "rescan_songs":
		h.handleRescan(w)
	default:
		h.respond(w, command, false, "Unknown command", nil)
	}
}

type passwordArgs struct {
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

func (h *APIHandler) handleCreatePassword(w http.ResponseWriter, r *http.Request, argsRaw string) {
	const command = bootstrapCommand

	if h.auth.IsPasswordSet() {
		h.respond(w, command, false, "Password already configured. Login to change it.", nil)
		return
	}

	var args passwordArgs
	if err := json.Unmarshal([]byte(argsRaw), &args); err != nil {
		h.respond(w, command, false, "Invalid arguments", nil)
		return
	}
	if args.Password1 == "" || args.Password1 != args.Password2 {
		h.respond(w, command, false, "Passwords do not match", nil)
		return
	}

	if err := h.auth.SetPassword(args.Password1); err != nil {
		logger.Error("failed to save password", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to save password", nil)
		return
	}

	session := h.sessions.Create(sessionCookieToken(r))
	h.setSessionCookie(w, r, session.Token)
	logger.Info("initial password created, admin logged in")
	h.respond(w, command, true, "", envelope{"csrf_token": session.CSRFToken})
}

func (h *APIHandler) handleChangePassword(w http.ResponseWriter, r *http.Request, argsRaw, csrfToken string) {
	const command = "change_password"

	// Defense in depth: re-validate CSRF explicitly for password changes.
	session, ok := h.currentSession(r)
	if !ok || !h.sessions.ValidateCSRF(session, csrfToken) {
		h.respond(w, command, false, "Invalid CSRF token", nil)
		return
	}

	var args passwordArgs
	if err := json.Unmarshal([]byte(argsRaw), &args); err != nil {
		h.respond(w, command, false, "Invalid arguments", nil)
		return
	}
	if args.Password1 == "" || args.Password1 != args.Password2 {
		h.respond(w, command, false, "Passwords do not match", nil)
		return
	}

	if err := h.auth.SetPassword(args.Password1); err != nil {
		logger.Error("failed to save password", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to save password", nil)
		return
	}
	h.respond(w, command, true, "", nil)
}

type renameArgs struct {
	SongKey string `json:"song_key"`
}

func (h *APIHandler) handleRename(w http.ResponseWriter, r *http.Request, argsRaw string) {
	const command = "rename"

	var args renameArgs
	if err := json.Unmarshal([]byte(argsRaw), &args); err != nil {
		h.respond(w, command, false, "Invalid arguments", nil)
		return
	}
	if !catalog.ValidKey(args.SongKey) {
		h.respond(w, command, false, "Invalid song key", nil)
		return
	}

	// Artist and title travel as separate form fields, not inside args.
	artist := r.FormValue("artist")
	title := r.FormValue("title")

	if err := h.catalog.Rename(args.SongKey, artist, title); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.respond(w, command, false, "Invalid song key", nil)
			return
		}
		h.respond(w, command, false, "Failed to rename song", nil)
		return
	}

	h.respond(w, command, true, "", envelope{
		"args": map[string]string{
			"song_key": args.SongKey,
			"artist":   artist,
			"title":    title,
		},
	})
}

func (h *APIHandler) handleReorder(w http.ResponseWriter, argsRaw string) {
	const command = "reorder"

	var keys []string
	if err := json.Unmarshal([]byte(argsRaw), &keys); err != nil || len(keys) == 0 {
		h.respond(w, command, false, "Invalid order data", nil)
		return
	}

	if err := h.catalog.Reorder(keys); err != nil {
		h.respond(w, command, false, "Failed to reorder songs", nil)
		return
	}
	h.respond(w, command, true, "", nil)
}

func (h *APIHandler) handleDelete(w http.ResponseWriter, key string) {
	const command = "delete"

	if !catalog.ValidKey(key) {
		h.respond(w, command, false, "Invalid song key", nil)
		return
	}

	if err := h.catalog.Delete(key); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.respond(w, command, false, "Unknown song key", nil)
			return
		}
		logger.Error("failed to delete song", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to delete song", nil)
		return
	}
	h.respond(w, command, true, "", envelope{"args": key})
}

func (h *APIHandler) handleBannerCaptionColor(w http.ResponseWriter, r *http.Request) {
	const command = "bannercaptioncolor"

	prefs := model.Prefs(h.store.Read(model.DocPrefs))
	prefs[model.PrefBanner] = r.FormValue("banner")
	prefs[model.PrefCaption] = r.FormValue("caption")

	// Theme color is stored only as bare hex of length 3 or 6.
	color := hexOnly.ReplaceAllString(r.FormValue("color"), "")
	if len(color) == 3 || len(color) == 6 {
		prefs[model.PrefColor] = color
	}

	if err := h.store.Write(model.DocPrefs, prefs); err != nil {
		logger.Error("failed to save preferences", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to save preferences", nil)
		return
	}
	h.respond(w, command, true, "", nil)
}

func (h *APIHandler) handleSetOption(w http.ResponseWriter, argsRaw string) {
	const command = "set_option"

	var args map[string]any
	if err := json.Unmarshal([]byte(argsRaw), &args); err != nil || len(args) == 0 {
		h.respond(w, command, false, "Invalid option data", nil)
		return
	}

	prefs := model.Prefs(h.store.Read(model.DocPrefs))
	for key, value := range args {
		key = optionKeySet.ReplaceAllString(key, "")
		if key == "" {
			continue
		}
		// Normalize the dynamic truthy value at the boundary; nothing past
		// this point ever sees the raw payload value.
		prefs.SetFlag(key, isTruthy(value))
	}

	if err := h.store.Write(model.DocPrefs, prefs); err != nil {
		logger.Error("failed to save preferences", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to save preferences", nil)
		return
	}
	h.respond(w, command, true, "", nil)
}

// isTruthy accepts the values the admin UI may submit for an "on" toggle.
// Anything else coerces to off.
func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "on" || v == "true"
	case float64:
		return v == 1
	default:
		return false
	}
}

func (h *APIHandler) handleCheckUpdates(w http.ResponseWriter) {
	const command = "check_updates"

	info, err := h.checker.Check()
	if err != nil {
		h.respond(w, command, false, "Could not check for updates", nil)
		return
	}
	h.respond(w, command, true, "", envelope{"update_info": info})
}

func (h *APIHandler) handleRescan(w http.ResponseWriter) {
	const command = "rescan_songs"

	songs, err := h.catalog.Rescan()
	if err != nil {
		h.respond(w, command, false, "Failed to rescan songs", nil)
		return
	}
	h.respond(w, command, true, "", envelope{"count": len(songs)})
}

package server

import (
	"errors"
	"io"
	"net/http"
	"os"

	"mixtape/core/upload"
	"mixtape/logger"
)

// UploadHandler accepts a multipart song upload, runs it through the
// validator and folds the new file into the catalog. The declared size hint
// is advisory only; the body is capped and the content re-validated here.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	const command = "upload"

	session, ok := h.currentSession(r)
	if !ok {
		h.respond(w, command, false, "Authentication required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.respond(w, command, false, "Upload too large or malformed", nil)
		return
	}

	if !h.sessions.ValidateCSRF(session, r.FormValue("csrf_token")) {
		h.respond(w, command, false, "Invalid CSRF token", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respond(w, command, false, "No file submitted", nil)
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "mixtape-upload-*")
	if err != nil {
		logger.Error("failed to create temp file", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to save file", nil)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		logger.Error("failed to spool upload", logger.ErrorField(err))
		h.respond(w, command, false, "Failed to save file", nil)
		return
	}
	tmp.Close()

	saved, err := h.validator.Validate(header.Filename, tmpPath)
	if err != nil {
		h.respond(w, command, false, uploadErrorMessage(err), nil)
		return
	}

	// Fold the new file into the catalog right away instead of waiting for
	// the next page load.
	if _, err := h.catalog.Scan(); err != nil {
		logger.Warn("scan after upload failed", logger.ErrorField(err))
	}

	h.respond(w, command, true, "", envelope{"filename": saved})
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, upload.ErrNotAudioType):
		return "Not an MP3"
	case errors.Is(err, upload.ErrInvalidFilename):
		return "Invalid filename"
	case errors.Is(err, upload.ErrInvalidContent):
		return "Not a valid MP3"
	default:
		return "Failed to save file"
	}
}

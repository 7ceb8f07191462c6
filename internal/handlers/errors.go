package handlers

import (
	"errors"
	"net/http"

	"media-bridge/internal/library"
	"media-bridge/internal/logging"
	"media-bridge/internal/transcoder"
)

// statusFor maps a library error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrPermissionRequired):
		return http.StatusForbidden
	case errors.Is(err, library.ErrUnsupportedCollectionMode),
		errors.Is(err, library.ErrAssetIDMissing),
		errors.Is(err, library.ErrAssetWrongKind):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, library.ErrAssetNotFound),
		errors.Is(err, transcoder.ErrUnknownExport):
		return http.StatusNotFound
	case errors.Is(err, library.ErrNoMediaData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error body with its mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logging.Debug("%s %s rejected (%d): %v", r.Method, r.URL.Path, code, err)
	}
	writeJSONError(w, err.Error(), code)
}

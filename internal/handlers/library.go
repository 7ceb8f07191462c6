package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"media-bridge/internal/filesystem"
	"media-bridge/internal/library"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/mediatypes"
	"media-bridge/internal/streaming"
	"media-bridge/internal/transcoder"
)

// maxListBodyBytes bounds the JSON body of a listing request.
const maxListBodyBytes = 1 << 20

// exportsPathPrefix is where completed exports are downloaded from.
const exportsPathPrefix = "/api/exports/"

// GetAuthorization returns the authorization status without prompting.
func (h *Handlers) GetAuthorization(w http.ResponseWriter, r *http.Request) {
	status, err := h.library.Authorization(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, string(status))
}

// RequestAuthorization asks for library access and returns the outcome.
func (h *Handlers) RequestAuthorization(w http.ResponseWriter, r *http.Request) {
	status, err := h.library.RequestAuthorization(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, string(status))
}

// ListCollections returns the collections selected by ?collectionMode=.
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.library.Collections(r.Context(), r.URL.Query().Get("collectionMode"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, collections)
}

// ListPhotos returns a window of image assets.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	h.listAssets(w, r, h.library.Photos)
}

// ListVideos returns a window of video assets.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	h.listAssets(w, r, h.library.Videos)
}

type listFunc func(ctx context.Context, opts library.ListOptions) ([]library.AssetRecord, error)

func (h *Handlers) listAssets(w http.ResponseWriter, r *http.Request, list listFunc) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := list(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, records)
}

// listRequest is the JSON body of a POST listing request. Offset and limit
// are loosely typed; anything that is not a positive number counts as zero.
type listRequest struct {
	CollectionIDs []string `json:"collectionIds"`
	Offset        any      `json:"offset"`
	Limit         any      `json:"limit"`
}

// parseListOptions reads listing options from the query string, or from the
// JSON body of a POST request.
func parseListOptions(r *http.Request) (library.ListOptions, error) {
	if r.Method != http.MethodPost {
		q := r.URL.Query()
		return library.ListOptions{
			CollectionIDs: splitIDs(q["collectionIds"]),
			Window:        library.ParseWindow(q.Get("offset"), q.Get("limit")),
		}, nil
	}

	var req listRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxListBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return library.ListOptions{}, fmt.Errorf("invalid request body: %w", err)
	}

	return library.ListOptions{
		CollectionIDs: splitIDs(req.CollectionIDs),
		Window:        library.ParseWindow(req.Offset, req.Limit),
	}, nil
}

// splitIDs accepts repeated values as well as comma separated lists.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// CancelListing stops the running photo or video listing.
func (h *Handlers) CancelListing(w http.ResponseWriter, _ *http.Request) {
	cancelled := h.library.Cancel()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"cancelled": cancelled})
}

// GetThumbnail renders a thumbnail. With asDataUrl=true the body is the data
// URL as plain text.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := media.ParseThumbnailOptions(q.Get("dimension"), q.Get("quality"), q.Get("asDataUrl"))

	data, err := h.library.Thumbnail(r.Context(), assetID(r), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if opts.AsDataURL {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	writeBytes(w, data)
}

// GetImage renders a full resolution image.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.library.Image(r.Context(), assetID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	writeBytes(w, data)
}

func writeBytes(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response: %v", err)
	}
}

// assetID reads the asset identifier from the route, falling back to ?id=.
func assetID(r *http.Request) string {
	if id := mux.Vars(r)["id"]; id != "" {
		return id
	}
	return r.URL.Query().Get("id")
}

// progressMessage, completeMessage and errorMessage are the NDJSON events of
// a video export stream.
type progressMessage struct {
	Type     string  `json:"type"`
	Progress float64 `json:"progress"`
}

type completeMessage struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type errorMessage struct {
	Type         string `json:"type"`
	ErrorMessage string `json:"errorMessage"`
}

// ExportVideo starts a video export and streams its progress as NDJSON. The
// export is cancelled when the client goes away.
func (h *Handlers) ExportVideo(w http.ResponseWriter, r *http.Request) {
	job, err := h.library.ExportVideo(r.Context(), assetID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.streamExport(w, r, job.Events(), job.Cancel)
}

// streamExport relays export events until the terminal one. If the client
// stops accepting events the export is cancelled, and a completed file that
// could not be announced is released.
func (h *Handlers) streamExport(w http.ResponseWriter, r *http.Request, events <-chan transcoder.Event, cancel func()) {
	ew := streaming.NewEventWriter(r.Context(), w, h.writeTimeout)

	for ev := range events {
		if !ev.Done {
			if err := ew.Send(progressMessage{Type: "download_progress", Progress: ev.Progress}); err != nil {
				logging.Debug("Export stream closed: %v", err)
				cancel()
				return
			}
			continue
		}

		if ev.Status == transcoder.StatusCompleted {
			if err := ew.Send(completeMessage{Type: "download_complete", URI: exportsPathPrefix + ev.Token}); err != nil {
				logging.Debug("Export completion not delivered: %v", err)
				if err := h.library.ReleaseExport(ev.Token); err != nil {
					logging.Warn("Failed to release export: %v", err)
				}
			}
			return
		}

		msg := fmt.Sprintf("unexpected export status %q", ev.Status)
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		if err := ew.Send(errorMessage{Type: "error", ErrorMessage: msg}); err != nil {
			logging.Debug("Export error not delivered: %v", err)
		}
		return
	}
}

// DownloadExport serves a completed export and releases it once the whole
// file was written. Interrupted, HEAD and range requests keep it for a retry.
func (h *Handlers) DownloadExport(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	path, err := h.exports.Lookup(token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to open export: %w", err))
		return
	}

	info, err := f.Stat()
	if err != nil {
		closeFile(f, path)
		writeError(w, r, fmt.Errorf("failed to stat export: %w", err))
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", mediatypes.GetMimeType(strings.ToLower(filepath.Ext(name))))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Cache-Control", "no-store")
	cw := &countingWriter{ResponseWriter: w}
	http.ServeContent(cw, r, name, info.ModTime(), f)
	closeFile(f, path)

	if r.Method == http.MethodHead || r.Header.Get("Range") != "" {
		return
	}
	if cw.written != info.Size() || cw.err != nil || r.Context().Err() != nil {
		logging.Debug("Download of %s interrupted after %d of %d bytes; keeping it", name, cw.written, info.Size())
		return
	}
	if err := h.library.ReleaseExport(token); err != nil {
		logging.Warn("Failed to release export %s: %v", name, err)
	}
}

// countingWriter tracks how much of a body reached the connection.
type countingWriter struct {
	http.ResponseWriter
	written int64
	err     error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.ResponseWriter.Write(p)
	c.written += int64(n)
	if err != nil && c.err == nil {
		c.err = err
	}
	return n, err
}

func (c *countingWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}

func closeFile(c io.Closer, path string) {
	if err := c.Close(); err != nil {
		logging.Warn("Failed to close %s: %v", path, err)
	}
}

// TriggerReindex starts an index run unless one is in progress.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.TriggerIndex() {
		writeJSONCode(w, http.StatusConflict, map[string]string{
			"status":  "already_running",
			"message": "Indexing is already in progress",
		})
		return
	}

	writeJSONCode(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Re-indexing started",
	})
}

// GetStats returns the cached index statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.stats.GetStats())
}

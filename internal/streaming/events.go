package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"media-bridge/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that the client did not accept an event
	// within the configured write timeout.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the stream completed.
	// This is detected via the request context being canceled.
	ErrClientGone = errors.New("client disconnected")
)

// ContentType is the media type of an event stream.
const ContentType = "application/x-ndjson"

// DefaultWriteTimeout bounds a single event write.
const DefaultWriteTimeout = 30 * time.Second

// EventWriter streams newline-delimited JSON values to an HTTP client,
// flushing after every event.
type EventWriter struct {
	ctx          context.Context
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
	enc          *json.Encoder
	started      bool
	events       int
}

// NewEventWriter creates a writer bound to the request context ctx.
func NewEventWriter(ctx context.Context, w http.ResponseWriter, writeTimeout time.Duration) *EventWriter {
	return &EventWriter{
		ctx:          ctx,
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
		enc:          json.NewEncoder(w),
	}
}

// Send writes v as one line and flushes it to the client.
func (ew *EventWriter) Send(v any) error {
	if ew.ctx.Err() != nil {
		return ErrClientGone
	}

	if !ew.started {
		ew.w.Header().Set("Content-Type", ContentType)
		ew.w.Header().Set("Cache-Control", "no-cache")
		ew.w.Header().Set("X-Content-Type-Options", "nosniff")
		ew.w.WriteHeader(http.StatusOK)
		ew.started = true
	}

	if ew.writeTimeout > 0 {
		// Recorders and some wrappers do not support deadlines; the write
		// then simply runs without one.
		if err := ew.rc.SetWriteDeadline(time.Now().Add(ew.writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logging.Debug("Failed to set write deadline: %v", err)
		}
	}

	if err := ew.enc.Encode(v); err != nil {
		return ew.writeError(err)
	}
	if err := ew.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return ew.writeError(err)
	}

	ew.events++
	return nil
}

// Events returns the number of events sent.
func (ew *EventWriter) Events() int {
	return ew.events
}

func (ew *EventWriter) writeError(err error) error {
	if ew.ctx.Err() != nil {
		return ErrClientGone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrWriteTimeout
	}
	return fmt.Errorf("failed to write event: %w", err)
}

package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// accessWriter records what the handler sent for the access log.
type accessWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	flushes      int
	wroteHeader  bool
}

func newAccessWriter(w http.ResponseWriter) *accessWriter {
	return &accessWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (aw *accessWriter) WriteHeader(code int) {
	if aw.wroteHeader {
		return
	}
	aw.statusCode = code
	aw.wroteHeader = true
	aw.ResponseWriter.WriteHeader(code)
}

func (aw *accessWriter) Write(b []byte) (int, error) {
	aw.wroteHeader = true
	n, err := aw.ResponseWriter.Write(b)
	aw.bytesWritten += int64(n)
	return n, err
}

func (aw *accessWriter) Flush() {
	aw.flushes++
	if f, ok := aw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (aw *accessWriter) Unwrap() http.ResponseWriter {
	return aw.ResponseWriter
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged
	SkipPaths []string
	// RenditionPrefixes identify thumbnail and image requests, which a
	// scrolling client issues in bulk
	RenditionPrefixes []string
	LogRenditions     bool
	LogHealthChecks   bool
}

// DefaultLoggingConfig returns a sensible default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		RenditionPrefixes: []string{"/api/thumbnail/", "/api/image/"},
		LogRenditions:     false,
		LogHealthChecks:   true,
	}
}

// W3CLogger handles W3C Extended Log Format logging
type W3CLogger struct {
	config      LoggingConfig
	serviceName string
}

// NewW3CLogger creates a new W3C format logger
func NewW3CLogger(config LoggingConfig, serviceName string) *W3CLogger {
	return &W3CLogger{config: config, serviceName: serviceName}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// sanitizeLogField turns newlines into spaces and drops other control
// characters except tab, so a client cannot forge log lines or emit
// terminal escapes.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// orDash returns "-" for empty W3C fields.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Logger returns HTTP logging middleware using W3C Extended Log Format
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	logger := NewW3CLogger(config, "MediaBridge/1.0")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			aw := newAccessWriter(w)
			next.ServeHTTP(aw, r)
			logger.logRequest(r, aw, time.Since(start))
		})
	}
}

// logRequest writes one line with the fields
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes
//	time-taken sc(Content-Type) sc(Content-Encoding) x-flushes cs(User-Agent)
//
// x-flushes counts explicit flushes, which is the number of events on an
// export progress stream.
func (l *W3CLogger) logRequest(r *http.Request, aw *accessWriter, duration time.Duration) {
	now := time.Now().UTC()

	contentType, _, _ := strings.Cut(aw.Header().Get("Content-Type"), ";")

	userAgent := sanitizeLogField(r.Header.Get("User-Agent"))
	if userAgent != "" {
		userAgent = escapeW3CField(userAgent)
	}

	//nolint:gosec // every client-controlled field passes through sanitizeLogField
	log.Println(fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s %s %d %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		sanitizeLogField(getClientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		aw.statusCode,
		aw.bytesWritten,
		duration.Milliseconds(),
		orDash(strings.TrimSpace(contentType)),
		orDash(aw.Header().Get("Content-Encoding")),
		aw.flushes,
		orDash(userAgent),
	))
}

func (l *W3CLogger) skip(path string) bool {
	for _, prefix := range l.config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	if !l.config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}

	if !l.config.LogRenditions {
		for _, prefix := range l.config.RenditionPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}

	return false
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// escapeW3CField quotes values containing whitespace or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

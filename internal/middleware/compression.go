package middleware

import (
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"media-bridge/internal/logging"
)

// CompressionConfig controls which responses are gzipped.
type CompressionConfig struct {
	MinSize           int      // smaller responses are sent as is
	Level             int      // gzip.BestSpeed to gzip.BestCompression
	CompressibleTypes []string // lower case media types without parameters
}

// DefaultCompressionConfig returns sensible defaults for compression. JPEG
// renditions and exported videos are already compressed and pass through.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"text/plain",
			"application/json",
			"application/x-ndjson",
		},
	}
}

// gzipPools holds one writer pool per compression level.
var gzipPools sync.Map

func gzipPool(level int) *sync.Pool {
	if p, ok := gzipPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{
		New: func() any {
			w, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				w, _ = gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
			}
			return w
		},
	})
	return p.(*sync.Pool)
}

// compressWriter holds back the first MinSize bytes of a response so it can
// decide whether gzip is worth it. Flushing forces the decision early.
type compressWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	pending []byte
	status  int

	decided bool
	gz      *gzip.Writer // nil when passing through
}

func newCompressWriter(w http.ResponseWriter, config CompressionConfig) *compressWriter {
	return &compressWriter{
		ResponseWriter: w,
		config:         config,
		status:         http.StatusOK,
		pending:        make([]byte, 0, config.MinSize+1),
	}
}

func (c *compressWriter) WriteHeader(status int) {
	if !c.decided {
		c.status = status
	}
}

func (c *compressWriter) Write(p []byte) (int, error) {
	switch {
	case c.decided && c.gz != nil:
		return c.gz.Write(p)
	case c.decided:
		return c.ResponseWriter.Write(p)
	}

	c.pending = append(c.pending, p...)
	if len(c.pending) > c.config.MinSize {
		if err := c.decide(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// worthCompressing reports whether n bytes of the current content type
// should be gzipped.
func (c *compressWriter) worthCompressing(n int) bool {
	h := c.Header()
	if n < c.config.MinSize || h.Get("Content-Encoding") != "" {
		return false
	}
	mediaType, _, _ := strings.Cut(h.Get("Content-Type"), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType != "" && slices.Contains(c.config.CompressibleTypes, mediaType)
}

// decide sends the headers and the held back bytes, compressed or not.
func (c *compressWriter) decide() error {
	if c.decided {
		return nil
	}
	c.decided = true

	pending := c.pending
	c.pending = nil

	if c.worthCompressing(len(pending)) {
		h := c.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")

		c.gz = gzipPool(c.config.Level).Get().(*gzip.Writer)
		c.gz.Reset(c.ResponseWriter)
		c.ResponseWriter.WriteHeader(c.status)
		_, err := c.gz.Write(pending)
		return err
	}

	c.ResponseWriter.WriteHeader(c.status)
	_, err := c.ResponseWriter.Write(pending)
	return err
}

// Close ends the response and returns the gzip writer to its pool.
func (c *compressWriter) Close() error {
	if err := c.decide(); err != nil {
		return err
	}
	if c.gz == nil {
		return nil
	}

	err := c.gz.Close()
	gzipPool(c.config.Level).Put(c.gz)
	c.gz = nil
	return err
}

// Flush pushes everything written so far to the client, which export
// progress streams rely on.
func (c *compressWriter) Flush() {
	if err := c.decide(); err != nil {
		logging.Debug("compression flush failed: %v", err)
		return
	}
	if c.gz != nil {
		if err := c.gz.Flush(); err != nil {
			logging.Debug("gzip flush failed: %v", err)
		}
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (c *compressWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}

// Compression gzips compressible responses for clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			cw := newCompressWriter(w, config)
			defer func() {
				if err := cw.Close(); err != nil {
					logging.Debug("failed to finish compressed response: %v", err)
				}
			}()
			next.ServeHTTP(cw, r)
		})
	}
}

package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
)

func TestAccessWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newAccessWriter(w)

	if rw.statusCode != http.StatusOK || rw.wroteHeader {
		t.Fatalf("fresh writer = %+v", rw)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("underlying status = %d, want 404", w.Code)
	}
}

func TestAccessWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newAccessWriter(w)

	n, err := rw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if rw.bytesWritten != 5 || !rw.wroteHeader {
		t.Errorf("after write: bytes=%d wroteHeader=%v", rw.bytesWritten, rw.wroteHeader)
	}
	if rw.Unwrap() != w {
		t.Error("Unwrap() should return the wrapped writer")
	}

	rw.Flush()
	rw.Flush()
	if rw.flushes != 2 || !w.Flushed {
		t.Errorf("flushes = %d, recorder flushed = %v", rw.flushes, w.Flushed)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		skip   bool
	}{
		{"logs api requests", "/api/photos", DefaultLoggingConfig(), false},
		{"skips thumbnails", "/api/thumbnail/ABC/L0/001", DefaultLoggingConfig(), true},
		{"skips full images", "/api/image/ABC", DefaultLoggingConfig(), true},
		{"logs renditions when enabled", "/api/thumbnail/ABC", LoggingConfig{LogRenditions: true, RenditionPrefixes: []string{"/api/thumbnail/"}}, false},
		{"logs exports", "/api/video/ABC", DefaultLoggingConfig(), false},
		{"logs health checks when enabled", "/health", LoggingConfig{LogHealthChecks: true}, false},
		{"skips health checks when disabled", "/health", LoggingConfig{LogHealthChecks: false}, true},
		{"skips configured paths", "/metrics", LoggingConfig{SkipPaths: []string{"/metrics"}, LogHealthChecks: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewW3CLogger(tt.config, "test").skip(tt.path); got != tt.skip {
				t.Errorf("skip(%q) = %v, want %v", tt.path, got, tt.skip)
			}

			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			if w.Code != http.StatusTeapot {
				t.Errorf("status = %d, want 418", w.Code)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a\nb\rc", "a b c"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\tkept", "tab\tkept"},
		{"del\x7fchar", "delchar"},
	}

	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:80", "10.0.0.9"},
		{"remote addr", nil, "1.2.3.4:5678", "1.2.3.4"},
		{"ipv6 remote addr", nil, "[::1]:5678", "::1"},
		{"remote addr without port", nil, "1.2.3.4", "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeW3CField(t *testing.T) {
	tests := map[string]string{
		"curl/8.0":          "curl/8.0",
		"Mozilla/5.0 (X11)": `"Mozilla/5.0 (X11)"`,
		`say "hi"`:          `"say ""hi"""`,
	}
	for in, want := range tests {
		if got := escapeW3CField(in); got != want {
			t.Errorf("escapeW3CField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoggerWritesW3CLine(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		rc := http.NewResponseController(w)
		for i := 0; i < 3; i++ {
			io.WriteString(w, "{}\n")
			rc.Flush()
		}
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/video/ABC?x=1", http.NoBody)
	r.RemoteAddr = "10.1.2.3:4444"
	r.Header.Set("User-Agent", "mediactl test")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	fields := strings.Fields(strings.TrimSpace(buf.String()))
	// date time c-ip method stem query status bytes ms type encoding flushes ua(2 words)
	if len(fields) != 14 {
		t.Fatalf("unexpected log line %q", buf.String())
	}
	want := map[int]string{2: "10.1.2.3", 3: "POST", 4: "/api/video/ABC", 5: "x=1", 6: "200", 7: "9", 9: "application/x-ndjson", 10: "-", 11: "3", 12: `"mediactl`}
	for i, w := range want {
		if fields[i] != w {
			t.Errorf("field %d = %q, want %q", i, fields[i], w)
		}
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		responseBody      string
		contentType       string
		acceptEncoding    string
		expectCompression bool
	}{
		{"compresses large JSON", strings.Repeat(`{"key":"value"}`, 200), "application/json", "gzip", true},
		{"compresses event streams", strings.Repeat("{\"type\":\"download_progress\"}\n", 100), "application/x-ndjson", "gzip", true},
		{"skips small responses", `{"ok":true}`, "application/json", "gzip", false},
		{"skips JPEG", strings.Repeat("data", 500), "image/jpeg", "gzip", false},
		{"skips video", strings.Repeat("data", 500), "video/quicktime", "gzip", false},
		{"respects client without gzip", strings.Repeat(`{"key":"value"}`, 200), "application/json", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusCreated)
				io.WriteString(w, tt.responseBody)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/photos", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusCreated {
				t.Errorf("status = %d, want 201", w.Code)
			}

			compressed := w.Header().Get("Content-Encoding") == "gzip"
			if compressed != tt.expectCompression {
				t.Fatalf("compressed = %v, want %v", compressed, tt.expectCompression)
			}

			body := w.Body.String()
			if compressed {
				gr, err := gzip.NewReader(w.Body)
				if err != nil {
					t.Fatalf("gzip.NewReader() error = %v", err)
				}
				data, err := io.ReadAll(gr)
				if err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
				body = string(data)
			}
			if body != tt.responseBody {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.responseBody))
			}
		})
	}
}

func TestCompressionFlushStreamsImmediately(t *testing.T) {
	flushed := make(chan int, 1)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, "{\"type\":\"download_progress\"}\n")
		w.(http.Flusher).Flush()
		flushed <- 1
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/video/x", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	<-flushed

	if !w.Flushed {
		t.Error("Flush() did not reach the underlying writer")
	}
	if !strings.Contains(w.Body.String(), "download_progress") {
		t.Errorf("small flushed event should pass through uncompressed, got %q", w.Body.String())
	}
}

func TestGzipPoolPerLevel(t *testing.T) {
	if gzipPool(gzip.BestSpeed) == gzipPool(gzip.BestCompression) {
		t.Error("levels should not share a pool")
	}
	if gzipPool(gzip.BestSpeed) != gzipPool(gzip.BestSpeed) {
		t.Error("same level should reuse its pool")
	}
}

func TestMetricsMiddlewareRouteTemplates(t *testing.T) {
	var seen []string
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			seen = append(seen, routeTemplate(req))
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/api/thumbnail/{id:.+}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.HandleFunc("/health", func(http.ResponseWriter, *http.Request) {})

	for _, path := range []string{"/api/thumbnail/ABC/L0/001", "/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	want := []string{"/api/thumbnail/{id:.+}", "/health"}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("route templates = %v, want %v", seen, want)
	}
}

func TestRouteTemplateUnmatched(t *testing.T) {
	if got := routeTemplate(httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)); got != "unmatched" {
		t.Errorf("routeTemplate() = %q, want unmatched", got)
	}
}

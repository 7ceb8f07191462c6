package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"media-bridge/internal/handlers"
)

func TestSetupRouter(t *testing.T) {
	t.Parallel()

	router := setupRouter(handlers.New(nil, nil, nil, nil))

	tests := []struct {
		method  string
		path    string
		match   bool
		wantVar map[string]string
	}{
		{http.MethodGet, "/health", true, nil},
		{http.MethodHead, "/livez", true, nil},
		{http.MethodGet, "/version", true, nil},
		{http.MethodGet, "/api/authorization", true, nil},
		{http.MethodPost, "/api/authorization", true, nil},
		{http.MethodGet, "/api/collections", true, nil},
		{http.MethodPost, "/api/photos", true, nil},
		{http.MethodGet, "/api/videos", true, nil},
		{http.MethodPost, "/api/cancel", true, nil},
		{http.MethodGet, "/api/cancel", false, nil},
		{http.MethodGet, "/api/thumbnail/ABC/L0/001", true, map[string]string{"id": "ABC/L0/001"}},
		{http.MethodGet, "/api/image/ABC", true, map[string]string{"id": "ABC"}},
		{http.MethodPost, "/api/video/ABC/L0/001", true, map[string]string{"id": "ABC/L0/001"}},
		{http.MethodGet, "/api/video/ABC", false, nil},
		{http.MethodGet, "/api/exports/tok", true, map[string]string{"token": "tok"}},
		{http.MethodPost, "/api/reindex", true, nil},
		{http.MethodGet, "/api/unknown", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var m mux.RouteMatch
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			matched := router.Match(req, &m) && m.MatchErr == nil

			if matched != tt.match {
				t.Fatalf("Match = %v, want %v", matched, tt.match)
			}
			for k, v := range tt.wantVar {
				if m.Vars[k] != v {
					t.Errorf("Var %s = %q, want %q", k, m.Vars[k], v)
				}
			}
		})
	}
}

package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-bridge/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse is the body of /health. The library summary is omitted
// until the first index run has found something.
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`
	FilesIndexed      int64  `json:"filesIndexed"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	TotalAssets       int            `json:"totalAssets,omitempty"`
	AssetsByKind      map[string]int `json:"assetsByKind,omitempty"`
	CollectionsByKind map[string]int `json:"collectionsByKind,omitempty"`
}

// HealthCheck reports indexer state and a library summary. It answers 503
// until the first index run has finished.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	hs := h.indexer.GetHealthStatus()

	resp := HealthResponse{
		Status:            statusStarting,
		Ready:             hs.Ready,
		Version:           startup.Version,
		Uptime:            hs.Uptime,
		Indexing:          hs.Indexing,
		InitialIndexError: hs.InitialIndexError,
		FilesIndexed:      hs.FilesIndexed,
		GoVersion:         runtime.Version(),
		NumCPU:            runtime.NumCPU(),
		NumGoroutine:      runtime.NumGoroutine(),
	}

	switch {
	case hs.InitialIndexError != "":
		resp.Status = statusDegraded
	case hs.Ready:
		resp.Status = statusHealthy
	}

	if !hs.LastIndexed.IsZero() {
		resp.LastIndexed = hs.LastIndexed.Format(time.RFC3339)
	}

	if stats := h.stats.GetStats(); stats.TotalAssets > 0 {
		resp.TotalAssets = stats.TotalAssets
		resp.AssetsByKind = stats.AssetsByKind
		resp.CollectionsByKind = stats.CollectionsByKind
	}

	code := http.StatusOK
	if !hs.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONCode(w, code, resp)
}

// LivenessCheck answers 200 while the process is serving.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONCode(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck answers 200 once the library has been indexed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.IsReady() {
		writeJSONCode(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSONCode(w, http.StatusOK, map[string]string{"status": "ready"})
}

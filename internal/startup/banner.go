package startup

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"media-bridge/internal/logging"
)

const rule = "------------------------------------------------------------"

// section starts a titled block of the startup log.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title)
	logging.Info(rule)
}

func printBanner() {
	fmt.Println(strings.Join([]string{
		"",
		rule,
		`    __  ___         ___         ____       _     __`,
		`   /  |/  /__  ____/ (_)___ _  / __ )_____(_)___/ /___ ____`,
		`  / /|_/ / _ \/ __  / / __ '/ / __  / ___/ / __  / __ '/ _ \`,
		` / /  / /  __/ /_/ / / /_/ / / /_/ / /  / / /_/ / /_/ /  __/`,
		`/_/  /_/\___/\__,_/_/\__,_/ /_____/_/  /_/\__,_/\__, /\___/`,
		`                                               /____/`,
		rule,
	}, "\n"))

	info := GetBuildInfo()
	logging.Info("  %s (%s) built %s", info.Version, info.Commit, info.BuildTime)
	logging.Info("  Started %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go:          %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()
	if procs < cpus {
		logging.Info("  CPUs:        %d of %d (container limit)", procs, cpus)
	} else {
		logging.Info("  CPUs:        %d", cpus)
	}

	if !logging.IsDebugEnabled() {
		return
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir: %s", wd)
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:    %s", hostname)
	}
}

// LogDatabaseInit logs how long opening and migrating the database took.
func LogDatabaseInit(duration time.Duration) {
	section("DATABASE")
	logging.Info("  [OK] Database ready in %v", duration)
}

// LogMediaToolsInit reports the external tools used for video probing,
// frame extraction and export, and whether libvips is in use.
func LogMediaToolsInit(exportsEnabled, vipsAvailable bool) {
	section("MEDIA TOOLS")

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %v; video thumbnails and exports will fail", err)
			continue
		}
		logging.Info("  [OK] %s", tool)
	}

	if vipsAvailable {
		logging.Info("  [OK] libvips")
	} else {
		logging.Info("  libvips unavailable, decoding images in Go")
	}

	if !exportsEnabled {
		logging.Warn("  Video export disabled (cache directory not writable)")
	}
}

// LogIndexerInit logs the indexer schedule before it starts.
func LogIndexerInit(interval time.Duration, workers int) {
	section("INDEXER")
	if interval > 0 {
		logging.Info("  Full re-index every %v with %d workers", interval, workers)
	} else {
		logging.Info("  Periodic re-index disabled, %d workers", workers)
	}
}

// LogIndexerStarted logs that the initial index run was scheduled.
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// ServerConfig holds what LogServerStarted reports.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints.
func LogServerStarted(config ServerConfig) {
	section(fmt.Sprintf("SERVER STARTED in %v", config.StartupDuration))
	logging.Info("  API:     http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics: http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics: DISABLED")
	}
	logging.Info(rule)
}

// LogShutdownInitiated logs the signal that started shutdown.
func LogShutdownInitiated(signal string) {
	section("SHUTDOWN (" + signal + ")")
}

// LogShutdownStep logs a shutdown step about to run.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a finished shutdown step.
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs the end of shutdown.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"media-bridge/internal/logging"
)

// checkDirectory verifies that path is an existing directory.
func checkDirectory(path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s directory: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("  %s directory %s: %d top level entries", name, path, len(entries))
		}
	}
	return nil
}

// ensureDirectory creates path when it does not exist yet.
func ensureDirectory(path, name string) error {
	err := checkDirectory(path, name)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", name, err)
	}
	logging.Debug("  Created %s directory %s", name, path)
	return nil
}

// prepareOptionalDir creates a writable directory for a feature that is
// disabled, not fatal, when the directory is unusable.
func prepareOptionalDir(path, name string) bool {
	err := os.MkdirAll(path, 0o755)
	if err == nil {
		err = testWriteAccess(path)
	}
	if err != nil {
		logging.Warn("  %s directory %s unusable, %s disabled: %v", name, path, name, err)
		return false
	}

	logging.Debug("  [OK] %s directory %s", name, path)
	return true
}

func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("failed to remove write test file %s: %v", probe, err)
	}
	return nil
}

// checkTool verifies that name is on PATH and answers -version.
func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	line, _, _ := strings.Cut(string(output), "\n")
	logging.Debug("  %s: %s", path, strings.TrimSpace(line))
	return nil
}

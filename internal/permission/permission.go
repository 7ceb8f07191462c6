// Package permission decides whether the media library may be read.
//
// The library is a directory, so access maps onto the directory state: a
// readable directory is granted, a missing one is not yet determined and
// anything else is denied.
package permission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"media-bridge/internal/logging"
)

// Status is the authorization state of the media library.
type Status string

// Authorization states, spelled the way callers receive them.
const (
	StatusGranted       Status = "GRANTED"
	StatusDenied        Status = "DENIED"
	StatusNotDetermined Status = "NOT_DETERMINED"
)

// Authorizer reports and requests access to the media library.
type Authorizer interface {
	Status(ctx context.Context) (Status, error)
	Request(ctx context.Context) (Status, error)
}

// Directory authorizes access to a media directory.
type Directory struct {
	path   string
	create bool
}

// NewDirectory returns an authorizer for path. When create is set, Request
// creates a missing directory.
func NewDirectory(path string, create bool) *Directory {
	return &Directory{path: path, create: create}
}

// Status checks the directory without changing it.
func (d *Directory) Status(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return StatusDenied, err
	}

	info, err := os.Stat(d.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return StatusNotDetermined, nil
	case err != nil:
		logging.Debug("media directory %s not accessible: %v", d.path, err)
		return StatusDenied, nil
	case !info.IsDir():
		return StatusDenied, nil
	}

	f, err := os.Open(d.path)
	if err != nil {
		logging.Debug("media directory %s not readable: %v", d.path, err)
		return StatusDenied, nil
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close media directory %s: %v", d.path, err)
		}
	}()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		logging.Debug("media directory %s not listable: %v", d.path, err)
		return StatusDenied, nil
	}

	return StatusGranted, nil
}

// Request resolves a not-determined state. A missing directory is created
// when allowed, otherwise access is denied. Granted and denied states are
// returned unchanged.
func (d *Directory) Request(ctx context.Context) (Status, error) {
	status, err := d.Status(ctx)
	if err != nil || status != StatusNotDetermined {
		return status, err
	}

	if !d.create {
		logging.Warn("Media directory %s does not exist", d.path)
		return StatusDenied, nil
	}

	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return StatusDenied, fmt.Errorf("failed to create media directory: %w", err)
	}
	logging.Info("Created media directory %s", d.path)
	return d.Status(ctx)
}

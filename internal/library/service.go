package library

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/mediatypes"
	"media-bridge/internal/metrics"
	"media-bridge/internal/permission"
	"media-bridge/internal/transcoder"
)

// Store is the indexed asset store.
type Store interface {
	Collections(ctx context.Context, q database.CollectionQuery) ([]database.Collection, error)
	CollectionsByID(ctx context.Context, ids []string) ([]database.Collection, error)
	Assets(ctx context.Context, q database.AssetQuery) iter.Seq2[database.Asset, error]
	AssetByID(ctx context.Context, id string) (database.Asset, error)
}

// Renderer produces JPEG renditions of assets.
type Renderer interface {
	Thumbnail(ctx context.Context, asset database.Asset, opts media.ThumbnailOptions) ([]byte, error)
	Image(ctx context.Context, asset database.Asset) ([]byte, error)
}

// Exporter runs video exports and owns their output files.
type Exporter interface {
	Export(ctx context.Context, asset database.Asset) (*transcoder.Job, error)
	Release(token string) error
}

// Service is the media library bridge. It is safe for concurrent use; the
// photo and video listings share one single-flight guard.
type Service struct {
	store    Store
	renderer Renderer
	exporter Exporter
	auth     permission.Authorizer
	guard    Guard
}

// NewService wires a Service. exporter may be nil when exports are disabled.
func NewService(store Store, renderer Renderer, exporter Exporter, auth permission.Authorizer) *Service {
	return &Service{store: store, renderer: renderer, exporter: exporter, auth: auth}
}

// Authorization returns the current authorization status without prompting.
func (s *Service) Authorization(ctx context.Context) (permission.Status, error) {
	return s.auth.Status(ctx)
}

// RequestAuthorization asks for access and returns the resulting status.
func (s *Service) RequestAuthorization(ctx context.Context) (permission.Status, error) {
	return s.auth.Request(ctx)
}

// authorize fails with ErrPermissionRequired unless access is granted,
// requesting it first when it has not been determined.
func (s *Service) authorize(ctx context.Context) error {
	status, err := s.auth.Status(ctx)
	if err == nil && status == permission.StatusNotDetermined {
		status, err = s.auth.Request(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionRequired, err)
	}
	if status != permission.StatusGranted {
		return ErrPermissionRequired
	}
	return nil
}

// Collections lists the collections selected by mode. An empty mode means
// ROLL.
func (s *Service) Collections(ctx context.Context, mode string) ([]CollectionDescriptor, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	m, err := ParseCollectionMode(mode)
	if err != nil {
		return nil, err
	}

	collections, err := ResolveCollections(ctx, s.store, m)
	if err != nil {
		return nil, err
	}

	out := make([]CollectionDescriptor, 0, len(collections))
	for _, c := range collections {
		out = append(out, describe(c))
	}
	return out, nil
}

// Photos lists image assets.
func (s *Service) Photos(ctx context.Context, opts ListOptions) ([]AssetRecord, error) {
	return s.list(ctx, mediatypes.KindImage, opts)
}

// Videos lists video assets.
func (s *Service) Videos(ctx context.Context, opts ListOptions) ([]AssetRecord, error) {
	return s.list(ctx, mediatypes.KindVideo, opts)
}

func (s *Service) list(ctx context.Context, kind mediatypes.MediaKind, opts ListOptions) (records []AssetRecord, err error) {
	label := string(kind)
	if err := s.authorize(ctx); err != nil {
		metrics.ListingsTotal.WithLabelValues(label, "error").Inc()
		return nil, err
	}

	held, release, err := s.guard.Acquire(ctx)
	if err != nil {
		metrics.ListingsTotal.WithLabelValues(label, "busy").Inc()
		return nil, err
	}
	defer release()

	start := time.Now()
	defer func() {
		status := "complete"
		switch {
		case err != nil:
			status = "error"
		case held.Err() != nil:
			status = "cancelled"
		}
		metrics.ListingsTotal.WithLabelValues(label, status).Inc()
		metrics.ListingDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		metrics.ListingAssetsEmitted.WithLabelValues(label).Add(float64(len(records)))
		logging.Debug("Listed %d %s assets (offset=%d limit=%d collections=%d) in %v: %s",
			len(records), kind, opts.Offset, opts.Limit, len(opts.CollectionIDs), time.Since(start), status)
	}()

	records, err = Paginate(held, s.store, kind, opts)
	if records == nil && err == nil {
		records = []AssetRecord{}
	}
	return records, err
}

// Cancel stops the running listing, if any. The listing returns what it has
// gathered so far. It reports whether a listing was running; cancelling an
// idle service is not an error.
func (s *Service) Cancel() bool {
	if !s.guard.Cancel() {
		return false
	}
	metrics.ListingCancellations.Inc()
	logging.Info("Listing cancelled")
	return true
}

// lookup resolves id to an image or video asset.
func (s *Service) lookup(ctx context.Context, id string) (database.Asset, mediatypes.Classification, error) {
	if id == "" {
		return database.Asset{}, mediatypes.Classification{}, ErrAssetIDMissing
	}

	asset, err := s.store.AssetByID(ctx, database.CanonicalAssetID(id))
	if errors.Is(err, database.ErrNotFound) {
		return database.Asset{}, mediatypes.Classification{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if err != nil {
		return database.Asset{}, mediatypes.Classification{}, err
	}

	c, ok := mediatypes.Classify(asset.Filename)
	if !ok || (c.Kind != mediatypes.KindImage && c.Kind != mediatypes.KindVideo) {
		return database.Asset{}, mediatypes.Classification{}, ErrAssetWrongKind
	}
	return asset, c, nil
}

// Thumbnail renders a thumbnail of an image or video asset.
func (s *Service) Thumbnail(ctx context.Context, id string, opts media.ThumbnailOptions) ([]byte, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	asset, _, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.Thumbnail(ctx, asset, opts)
}

// Image renders an image asset at full resolution.
func (s *Service) Image(ctx context.Context, id string) ([]byte, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	asset, c, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Kind != mediatypes.KindImage {
		return nil, fmt.Errorf("%w: %s is a %s", ErrAssetWrongKind, id, c.Kind)
	}
	return s.renderer.Image(ctx, asset)
}

// ExportVideo starts exporting a video asset. Cancelling ctx cancels the
// export. Completed files must be released with ReleaseExport.
func (s *Service) ExportVideo(ctx context.Context, id string) (*transcoder.Job, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, fmt.Errorf("%w: exports are disabled", ErrExportFailed)
	}
	asset, c, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Kind != mediatypes.KindVideo {
		return nil, fmt.Errorf("%w: %s is a %s", ErrAssetWrongKind, id, c.Kind)
	}
	return s.exporter.Export(ctx, asset)
}

// ReleaseExport deletes a completed export.
func (s *Service) ReleaseExport(token string) error {
	if s.exporter == nil {
		return transcoder.ErrUnknownExport
	}
	return s.exporter.Release(token)
}

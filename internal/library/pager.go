package library

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"media-bridge/internal/database"
	"media-bridge/internal/logging"
	"media-bridge/internal/mediatypes"
	"media-bridge/internal/metrics"
)

// Window is an offset/limit pair. A zero limit means unbounded.
type Window struct {
	Offset int
	Limit  int
}

// ParseWindow builds a window from loosely typed input such as query string
// values or decoded JSON numbers.
func ParseWindow(offset, limit any) Window {
	return Window{Offset: ParseCount(offset), Limit: ParseCount(limit)}
}

// ParseCount converts v to a non-negative integer. Absent, non-numeric and
// negative input yields 0.
func ParseCount(v any) int {
	var n float64
	switch x := v.(type) {
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case float64:
		n = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}

	if math.IsNaN(n) || n <= 0 {
		return 0
	}
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// ListOptions selects and windows a listing. Without collection IDs the
// whole library is listed.
type ListOptions struct {
	CollectionIDs []string
	Window
}

// pager applies the offset/limit window to classified assets. Offset counts
// only assets that classify as the requested kind.
type pager struct {
	kind    mediatypes.MediaKind
	window  Window
	counter int
	records []AssetRecord
	skipped int
}

// visit handles one asset and reports whether enumeration should continue.
func (p *pager) visit(a database.Asset) bool {
	c, ok := mediatypes.Classify(a.Filename)
	if !ok || c.Kind != p.kind {
		p.skipped++
		logging.Debug("Skipping asset %s (%s, %s, %d bytes): not a listable %s",
			a.ID, a.Filename, a.Kind, a.Size, p.kind)
		return true
	}

	if p.counter < p.window.Offset {
		p.counter++
		return true
	}

	p.records = append(p.records, NewAssetRecord(a, c))
	if p.window.Limit > 0 && len(p.records) == p.window.Limit {
		return false
	}
	p.counter++
	return true
}

// Paginate walks the library, or the requested collections in the given
// order, newest asset first, and returns the records inside the window.
// Cancelling ctx stops the walk; the records gathered so far are returned
// without an error. Unknown collection IDs contribute nothing.
func Paginate(ctx context.Context, store Store, kind mediatypes.MediaKind, opts ListOptions) ([]AssetRecord, error) {
	p := &pager{kind: kind, window: opts.Window}
	storeKind := storeKindFor(kind)

	var hint int
	if opts.Offset == 0 && opts.Limit > 0 {
		hint = opts.Limit
	}

	var queries []database.AssetQuery
	if len(opts.CollectionIDs) == 0 {
		queries = append(queries, database.AssetQuery{Kind: storeKind})
	} else {
		collections, err := store.CollectionsByID(ctx, opts.CollectionIDs)
		if err != nil {
			if ctx.Err() != nil {
				return p.records, nil
			}
			return nil, fmt.Errorf("failed to load collections: %w", err)
		}
		for _, c := range assetContainers(collections) {
			queries = append(queries, database.AssetQuery{Kind: storeKind, CollectionID: c.ID})
		}
	}

	defer func() {
		if p.skipped > 0 {
			metrics.ListingAssetsSkipped.WithLabelValues(string(kind)).Add(float64(p.skipped))
		}
	}()

	for _, q := range queries {
		for a, err := range cappedAssets(ctx, store, q, hint) {
			if ctx.Err() != nil {
				return p.records, nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to enumerate assets: %w", err)
			}
			if !p.visit(a) {
				return p.records, nil
			}
		}
	}
	return p.records, nil
}

// cappedAssets passes hint to the store as a row limit. The store cannot
// classify, so when the capped query fills up the remaining rows are read
// from an uncapped query resuming after the rows already seen.
func cappedAssets(ctx context.Context, store Store, q database.AssetQuery, hint int) iter.Seq2[database.Asset, error] {
	return func(yield func(database.Asset, error) bool) {
		if hint <= 0 {
			for a, err := range store.Assets(ctx, q) {
				if !yield(a, err) {
					return
				}
			}
			return
		}

		capped := q
		capped.Limit = hint
		seen := 0
		for a, err := range store.Assets(ctx, capped) {
			if !yield(a, err) || err != nil {
				return
			}
			seen++
		}
		if seen < hint {
			return
		}

		skip := seen
		for a, err := range store.Assets(ctx, q) {
			if err == nil && skip > 0 {
				skip--
				continue
			}
			if !yield(a, err) || err != nil {
				return
			}
		}
	}
}

func storeKindFor(kind mediatypes.MediaKind) mediatypes.FileType {
	switch kind {
	case mediatypes.KindImage:
		return mediatypes.FileTypeImage
	case mediatypes.KindVideo:
		return mediatypes.FileTypeVideo
	case mediatypes.KindAudio:
		return mediatypes.FileTypeAudio
	default:
		return ""
	}
}

package library

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/media"
	"media-bridge/internal/mediatypes"
	"media-bridge/internal/permission"
	"media-bridge/internal/transcoder"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store with the same ordering rules as the
// SQLite store.
type fakeStore struct {
	assets      []database.Asset
	collections []database.Collection
	members     map[string][]string // collection ID -> asset IDs

	mu      sync.Mutex
	queries []database.AssetQuery

	// onAsset runs before each asset is yielded.
	onAsset func(database.Asset)
	// lookupErr is returned by CollectionsByID when set.
	lookupErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[string][]string)}
}

// add appends an asset created `age` units before baseTime.
func (f *fakeStore) add(filename string, age int) database.Asset {
	a := database.Asset{
		ID:        database.AssetID(filename),
		Path:      filename,
		Filename:  filename,
		Kind:      mediatypes.GetFileType(strings.ToLower(filepath.Ext(filename))),
		Width:     640,
		Height:    480,
		CreatedAt: baseTime.Add(-time.Duration(age) * time.Hour),
		Size:      1024,
	}
	f.assets = append(f.assets, a)
	return a
}

func (f *fakeStore) addCollection(c database.Collection, members ...database.Asset) {
	f.collections = append(f.collections, c)
	for _, a := range members {
		f.members[c.ID] = append(f.members[c.ID], a.ID)
	}
}

func (f *fakeStore) Collections(ctx context.Context, q database.CollectionQuery) ([]database.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []database.Collection
	for _, c := range f.collections {
		if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, c.Kind) {
			continue
		}
		if q.Subtype != "" && c.Subtype != q.Subtype {
			continue
		}
		if q.TopLevel && c.ParentID != "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CollectionsByID(ctx context.Context, ids []string) ([]database.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []database.Collection
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, c := range f.collections {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) Assets(ctx context.Context, q database.AssetQuery) iter.Seq2[database.Asset, error] {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	var rows []database.Asset
	for _, a := range f.assets {
		if q.Kind != "" && a.Kind != q.Kind {
			continue
		}
		if q.CollectionID != "" && !slices.Contains(f.members[q.CollectionID], a.ID) {
			continue
		}
		rows = append(rows, a)
	}
	slices.SortStableFunc(rows, func(a, b database.Asset) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	return func(yield func(database.Asset, error) bool) {
		for _, a := range rows {
			if err := ctx.Err(); err != nil {
				yield(database.Asset{}, err)
				return
			}
			if f.onAsset != nil {
				f.onAsset(a)
			}
			if !yield(a, nil) {
				return
			}
		}
	}
}

func (f *fakeStore) AssetByID(ctx context.Context, id string) (database.Asset, error) {
	for _, a := range f.assets {
		if a.ID == id {
			return a, nil
		}
	}
	return database.Asset{}, database.ErrNotFound
}

func (f *fakeStore) assetQueries() []database.AssetQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

type fakeAuth struct {
	status    permission.Status
	onRequest permission.Status
	requests  int
	err       error
}

func (a *fakeAuth) Status(context.Context) (permission.Status, error) {
	return a.status, a.err
}

func (a *fakeAuth) Request(context.Context) (permission.Status, error) {
	a.requests++
	if a.status == permission.StatusNotDetermined {
		a.status = a.onRequest
	}
	return a.status, a.err
}

func granted() *fakeAuth {
	return &fakeAuth{status: permission.StatusGranted}
}

type fakeRenderer struct {
	rendered []string
}

func (r *fakeRenderer) Thumbnail(_ context.Context, a database.Asset, opts media.ThumbnailOptions) ([]byte, error) {
	r.rendered = append(r.rendered, "thumb:"+a.Filename)
	return []byte("jpeg"), nil
}

func (r *fakeRenderer) Image(_ context.Context, a database.Asset) ([]byte, error) {
	r.rendered = append(r.rendered, "image:"+a.Filename)
	return []byte("full"), nil
}

type fakeExporter struct {
	exported []string
	released []string
}

func (e *fakeExporter) Export(_ context.Context, a database.Asset) (*transcoder.Job, error) {
	e.exported = append(e.exported, a.Filename)
	return nil, nil
}

func (e *fakeExporter) Release(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	e.released = append(e.released, token)
	return nil
}

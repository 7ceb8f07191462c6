package library

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"testing"

	"media-bridge/internal/database"
	"media-bridge/internal/mediatypes"
)

func names(records []AssetRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func mustPaginate(t *testing.T, store Store, kind mediatypes.MediaKind, opts ListOptions) []AssetRecord {
	t.Helper()
	records, err := Paginate(context.Background(), store, kind, opts)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	return records
}

func TestPaginateMixedLibrary(t *testing.T) {
	store := newFakeStore()
	store.add("A.jpg", 1)
	store.add("B.mov", 2)
	store.add("C.txt", 3)

	opts := ListOptions{Window: Window{Limit: 10}}

	if got := names(mustPaginate(t, store, mediatypes.KindImage, opts)); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("images = %v, want [A]", got)
	}
	if got := names(mustPaginate(t, store, mediatypes.KindVideo, opts)); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("videos = %v, want [B]", got)
	}
}

// windowStore holds four listable images with unclassifiable images in
// between: newest first they are img1, odd1, img2, odd2, img3, img4.
func windowStore() *fakeStore {
	store := newFakeStore()
	store.add("img1.jpg", 1)
	store.add("odd1.webp", 2)
	store.add("img2.png", 3)
	store.add("odd2.heif", 4)
	store.add("img3.gif", 5)
	store.add("img4.tiff", 6)
	return store
}

func TestPaginateOffsetCountsClassifiedAssetsOnly(t *testing.T) {
	got := names(mustPaginate(t, windowStore(), mediatypes.KindImage, ListOptions{Window: Window{Offset: 1, Limit: 1}}))
	if !reflect.DeepEqual(got, []string{"img2"}) {
		t.Errorf("offset 1 limit 1 = %v, want [img2]", got)
	}

	got = names(mustPaginate(t, windowStore(), mediatypes.KindImage, ListOptions{Window: Window{Offset: 2}}))
	if !reflect.DeepEqual(got, []string{"img3", "img4"}) {
		t.Errorf("offset 2 = %v, want [img3 img4]", got)
	}
}

func TestPaginateWindowSizes(t *testing.T) {
	const classifiable = 4
	all := []string{"img1", "img2", "img3", "img4"}

	for offset := 0; offset <= classifiable+2; offset++ {
		for limit := 0; limit <= classifiable+2; limit++ {
			t.Run(fmt.Sprintf("offset=%d,limit=%d", offset, limit), func(t *testing.T) {
				got := names(mustPaginate(t, windowStore(), mediatypes.KindImage, ListOptions{Window: Window{Offset: offset, Limit: limit}}))

				remaining := max(0, classifiable-offset)
				want := remaining
				if limit > 0 {
					want = min(limit, remaining)
				}
				if len(got) != want {
					t.Fatalf("emitted %d records %v, want %d", len(got), got, want)
				}
				if want > 0 && !reflect.DeepEqual(got, all[offset:offset+want]) {
					t.Errorf("records = %v, want %v", got, all[offset:offset+want])
				}
			})
		}
	}
}

func TestPaginateOrderingAndTies(t *testing.T) {
	store := newFakeStore()
	a := store.add("same1.jpg", 5)
	b := store.add("same2.jpg", 5)
	store.add("newest.jpg", 1)

	got := mustPaginate(t, store, mediatypes.KindImage, ListOptions{})
	if len(got) != 3 || got[0].Name != "newest" {
		t.Fatalf("records = %v", names(got))
	}
	first, second := a.ID, b.ID
	if second < first {
		first, second = second, first
	}
	if got[1].ID != first || got[2].ID != second {
		t.Errorf("tie order = %s, %s; want %s, %s", got[1].ID, got[2].ID, first, second)
	}
}

func TestPaginateIdempotent(t *testing.T) {
	store := windowStore()
	opts := ListOptions{Window: Window{Offset: 1, Limit: 2}}

	first, _ := json.Marshal(mustPaginate(t, store, mediatypes.KindImage, opts))
	second, _ := json.Marshal(mustPaginate(t, store, mediatypes.KindImage, opts))
	if string(first) != string(second) {
		t.Errorf("listing is not stable:\n%s\n%s", first, second)
	}
}

func TestPaginateNeverEmitsUnclassifiable(t *testing.T) {
	store := windowStore()
	for offset := 0; offset < 4; offset++ {
		for _, r := range mustPaginate(t, store, mediatypes.KindImage, ListOptions{Window: Window{Offset: offset}}) {
			if r.Name == "odd1" || r.Name == "odd2" {
				t.Errorf("unclassifiable asset %s emitted at offset %d", r.Name, offset)
			}
			if r.MediaType != mediatypes.KindImage {
				t.Errorf("record %s has media type %s", r.Name, r.MediaType)
			}
		}
	}
}

func TestPaginateStoreHintFallsThrough(t *testing.T) {
	store := windowStore()

	got := names(mustPaginate(t, store, mediatypes.KindImage, ListOptions{Window: Window{Limit: 3}}))
	if !reflect.DeepEqual(got, []string{"img1", "img2", "img3"}) {
		t.Errorf("records = %v, want [img1 img2 img3]", got)
	}

	queries := store.assetQueries()
	if len(queries) == 0 || queries[0].Limit != 3 {
		t.Fatalf("first store query = %+v, want Limit 3", queries)
	}
	if len(queries) != 2 || queries[1].Limit != 0 {
		t.Errorf("queries = %+v, want an uncapped follow-up", queries)
	}
}

func TestPaginateNoHintWithOffset(t *testing.T) {
	store := windowStore()
	mustPaginate(t, store, mediatypes.KindImage, ListOptions{Window: Window{Offset: 1, Limit: 1}})
	for _, q := range store.assetQueries() {
		if q.Limit != 0 {
			t.Errorf("store query capped to %d with a non-zero offset", q.Limit)
		}
	}
}

func collectionStore() (*fakeStore, map[string]database.Asset) {
	store := newFakeStore()
	assets := map[string]database.Asset{
		"p1": store.add("p1.jpg", 1),
		"p2": store.add("p2.jpg", 2),
		"p3": store.add("p3.jpg", 3),
		"v1": store.add("v1.mp4", 4),
	}
	store.addCollection(database.Collection{ID: "first", Kind: database.CollectionKindAlbum}, assets["p3"], assets["v1"])
	store.addCollection(database.Collection{ID: "second", Kind: database.CollectionKindAlbum}, assets["p1"], assets["p2"])
	store.addCollection(database.Collection{ID: "folder", Kind: database.CollectionKindFolder})
	store.members["folder"] = []string{assets["p1"].ID}
	return store, assets
}

func TestPaginateCollections(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		win  Window
		want []string
	}{
		{"requested order", []string{"second", "first"}, Window{}, []string{"p1", "p2", "p3"}},
		{"other order", []string{"first", "second"}, Window{}, []string{"p3", "p1", "p2"}},
		{"duplicates collapsed", []string{"first", "first", "second"}, Window{}, []string{"p3", "p1", "p2"}},
		{"unknown dropped", []string{"nope", "first"}, Window{}, []string{"p3"}},
		{"folders skipped", []string{"folder", "first"}, Window{}, []string{"p3"}},
		{"limit spans collections", []string{"first", "second"}, Window{Limit: 2}, []string{"p3", "p1"}},
		{"offset spans collections", []string{"first", "second"}, Window{Offset: 2}, []string{"p2"}},
		{"only unknown ids", []string{"nope"}, Window{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := collectionStore()
			got := names(mustPaginate(t, store, mediatypes.KindImage, ListOptions{CollectionIDs: tt.ids, Window: tt.win}))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("records = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaginateCancellationReturnsPartial(t *testing.T) {
	store := windowStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := 0
	store.onAsset = func(database.Asset) {
		seen++
		if seen == 3 {
			cancel()
		}
	}

	records, err := Paginate(ctx, store, mediatypes.KindImage, ListOptions{})
	if err != nil {
		t.Fatalf("Paginate() error = %v, want partial result", err)
	}
	if got := names(records); !reflect.DeepEqual(got, []string{"img1"}) {
		t.Errorf("partial records = %v, want [img1]", got)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{"", 0},
		{"12", 12},
		{" 7 ", 7},
		{"3.9", 3},
		{"abc", 0},
		{"-4", 0},
		{5, 5},
		{-5, 0},
		{int64(9), 9},
		{float64(10), 10},
		{json.Number("6"), 6},
		{json.Number("x"), 0},
		{math.NaN(), 0},
		{math.Inf(1), math.MaxInt32},
		{true, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.in), func(t *testing.T) {
			if got := ParseCount(tt.in); got != tt.want {
				t.Errorf("ParseCount(%#v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	if got := ParseWindow("5", 10.0); got != (Window{Offset: 5, Limit: 10}) {
		t.Errorf("ParseWindow() = %+v", got)
	}
	if got := ParseWindow(nil, "x"); got != (Window{}) {
		t.Errorf("ParseWindow(nil, x) = %+v, want zero window", got)
	}
}

package database

import (
	"context"
	"testing"
	"time"

	"media-bridge/internal/mediatypes"
)

func seedCollections(t *testing.T, db *Database) (Asset, Asset) {
	t.Helper()

	img := testAsset("trips/paris/a.jpg", mediatypes.FileTypeImage, time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	vid := testAsset("trips/paris/b.mov", mediatypes.FileTypeVideo, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	insertAssets(t, db, img, vid)

	records := []CollectionRecord{
		{Collection: Collection{ID: "library", Kind: CollectionKindSmart, Subtype: SubtypeLibrary, Title: "Library", SortOrder: 0}, AssetIDs: []string{img.ID, vid.ID}},
		{Collection: Collection{ID: "videos", Kind: CollectionKindSmart, Subtype: SubtypeVideos, Title: "Videos", SortOrder: 1}, AssetIDs: []string{vid.ID}},
		{Collection: Collection{ID: "trips", Kind: CollectionKindFolder, Title: "trips"}},
		{Collection: Collection{ID: "paris", Kind: CollectionKindAlbum, Title: "paris", ParentID: "trips"}, AssetIDs: []string{img.ID, vid.ID}},
		{Collection: Collection{ID: "loose", Kind: CollectionKindAlbum}, AssetIDs: []string{img.ID}},
		{Collection: Collection{ID: "day1", Kind: CollectionKindMoment, StartDate: vid.CreatedAt, EndDate: vid.CreatedAt}, AssetIDs: []string{vid.ID}},
		{Collection: Collection{ID: "day2", Kind: CollectionKindMoment, StartDate: img.CreatedAt, EndDate: img.CreatedAt}, AssetIDs: []string{img.ID}},
	}
	if err := db.ReplaceCollections(context.Background(), records); err != nil {
		t.Fatalf("ReplaceCollections() error = %v", err)
	}
	return img, vid
}

func collectionIDs(cs []Collection) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCollectionsQueries(t *testing.T) {
	db := setupTestDB(t)
	seedCollections(t, db)

	tests := []struct {
		name string
		q    CollectionQuery
		want []string
	}{
		{"library", CollectionQuery{Kinds: []CollectionKind{CollectionKindSmart}, Subtype: SubtypeLibrary}, []string{"library"}},
		{"smart", CollectionQuery{Kinds: []CollectionKind{CollectionKindSmart}}, []string{"library", "videos"}},
		{"top level user collections", CollectionQuery{Kinds: []CollectionKind{CollectionKindAlbum, CollectionKindFolder}, TopLevel: true}, []string{"loose", "trips"}},
		{"moments newest first", CollectionQuery{Kinds: []CollectionKind{CollectionKindMoment}}, []string{"day2", "day1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Collections(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("Collections() error = %v", err)
			}
			if ids := collectionIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("Collections() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestCollectionsEstimatedCountAndTitle(t *testing.T) {
	db := setupTestDB(t)
	seedCollections(t, db)

	got, err := db.CollectionsByID(context.Background(), []string{"paris", "loose", "trips"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("CollectionsByID() returned %d, want 3", len(got))
	}
	if got[0].EstimatedCount != 2 || got[1].EstimatedCount != 1 {
		t.Errorf("counts = %d, %d; want 2, 1", got[0].EstimatedCount, got[1].EstimatedCount)
	}
	if got[1].Title != "" {
		t.Errorf("untitled collection Title = %q, want empty", got[1].Title)
	}
	if got[2].CanContainAssets() {
		t.Error("folder should not contain assets")
	}
}

func TestCollectionsByIDOrderAndDedup(t *testing.T) {
	db := setupTestDB(t)
	seedCollections(t, db)

	got, err := db.CollectionsByID(context.Background(), []string{"videos", "nope", "library", "videos"})
	if err != nil {
		t.Fatal(err)
	}
	if ids := collectionIDs(got); !equalIDs(ids, []string{"videos", "library"}) {
		t.Errorf("CollectionsByID() = %v, want [videos library]", ids)
	}

	empty, err := db.CollectionsByID(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("CollectionsByID(nil) = %v, %v", empty, err)
	}
}

func TestReplaceCollectionsDropsOldSet(t *testing.T) {
	db := setupTestDB(t)
	seedCollections(t, db)

	if err := db.ReplaceCollections(context.Background(), []CollectionRecord{
		{Collection: Collection{ID: "only", Kind: CollectionKindSmart, Subtype: SubtypeLibrary}},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.Collections(context.Background(), CollectionQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if ids := collectionIDs(got); !equalIDs(ids, []string{"only"}) {
		t.Errorf("after replace: %v, want [only]", ids)
	}
}

func TestDeletingAssetRemovesMembership(t *testing.T) {
	db := setupTestDB(t)
	seedCollections(t, db)

	b, err := db.BeginBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.DeleteMissingAssets(b, time.Now().Add(5*time.Second))
	if err := db.EndBatch(b, err); err != nil {
		t.Fatal(err)
	}

	got, err := db.CollectionsByID(context.Background(), []string{"paris"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].EstimatedCount != 0 {
		t.Errorf("paris after delete = %+v, want count 0", got)
	}
}

package indexer

import (
	"path"
	"slices"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/mediatypes"
)

// recentWindow is how far back a file's modification time may lie for the
// asset to count as recently added.
const recentWindow = 30 * 24 * time.Hour

type smartCollection struct {
	subtype string
	title   string
	member  func(a database.Asset, now time.Time) bool
}

// smartCollections are listed in sort order.
var smartCollections = []smartCollection{
	{database.SubtypeLibrary, "Library", func(database.Asset, time.Time) bool { return true }},
	{database.SubtypeVideos, "Videos", func(a database.Asset, _ time.Time) bool { return a.Kind == mediatypes.FileTypeVideo }},
	{database.SubtypeImages, "Photos", func(a database.Asset, _ time.Time) bool { return a.Kind == mediatypes.FileTypeImage }},
	{database.SubtypeRecent, "Recently Added", func(a database.Asset, now time.Time) bool { return now.Sub(a.ModTime) <= recentWindow }},
	{database.SubtypeHidden, "Hidden", func(a database.Asset, _ time.Time) bool { return a.Hidden }},
}

// buildCollections derives every collection from the indexed assets.
func buildCollections(assets []database.Asset, now time.Time) []database.CollectionRecord {
	var records []database.CollectionRecord

	for i, sc := range smartCollections {
		r := database.CollectionRecord{Collection: database.Collection{
			ID:        database.CollectionID(database.CollectionKindSmart, sc.subtype),
			Kind:      database.CollectionKindSmart,
			Subtype:   sc.subtype,
			Title:     sc.title,
			SortOrder: i,
		}}
		for _, a := range assets {
			if sc.member(a, now) {
				r.AssetIDs = append(r.AssetIDs, a.ID)
			}
		}
		records = append(records, r)
	}

	records = append(records, directoryCollections(assets)...)
	records = append(records, momentCollections(assets)...)
	return records
}

// directoryCollections turns directories into albums and folders. A
// directory with media of its own is an album; a directory holding only
// directories is a folder. Both are keyed on the directory path so the ID
// survives a folder turning into an album.
func directoryCollections(assets []database.Asset) []database.CollectionRecord {
	direct := make(map[string][]string)
	dirs := make(map[string]bool)

	for _, a := range assets {
		dir := path.Dir(a.Path)
		if dir == "." {
			continue
		}
		direct[dir] = append(direct[dir], a.ID)
		for d := dir; d != "." && !dirs[d]; d = path.Dir(d) {
			dirs[d] = true
		}
	}

	kindOf := func(dir string) database.CollectionKind {
		if len(direct[dir]) > 0 {
			return database.CollectionKindAlbum
		}
		return database.CollectionKindFolder
	}
	idOf := func(dir string) string {
		return database.CollectionID(database.CollectionKindAlbum, dir)
	}

	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	slices.Sort(sorted)

	records := make([]database.CollectionRecord, 0, len(sorted))
	for _, dir := range sorted {
		var parentID string
		if parent := path.Dir(dir); parent != "." {
			parentID = idOf(parent)
		}
		records = append(records, database.CollectionRecord{
			Collection: database.Collection{
				ID:       idOf(dir),
				Kind:     kindOf(dir),
				Title:    path.Base(dir),
				ParentID: parentID,
			},
			AssetIDs: direct[dir],
		})
	}
	return records
}

// momentCollections groups assets by local calendar day of creation. Moments
// carry no title.
func momentCollections(assets []database.Asset) []database.CollectionRecord {
	byDay := make(map[string]*database.CollectionRecord)
	var days []string

	for _, a := range assets {
		created := a.CreatedAt.Local()
		day := created.Format(time.DateOnly)
		r, ok := byDay[day]
		if !ok {
			r = &database.CollectionRecord{Collection: database.Collection{
				ID:        database.CollectionID(database.CollectionKindMoment, day),
				Kind:      database.CollectionKindMoment,
				StartDate: created,
				EndDate:   created,
			}}
			byDay[day] = r
			days = append(days, day)
		}
		if created.Before(r.StartDate) {
			r.StartDate = created
		}
		if created.After(r.EndDate) {
			r.EndDate = created
		}
		r.AssetIDs = append(r.AssetIDs, a.ID)
	}

	slices.Sort(days)
	slices.Reverse(days)

	records := make([]database.CollectionRecord, 0, len(days))
	for _, day := range days {
		records = append(records, *byDay[day])
	}
	return records
}

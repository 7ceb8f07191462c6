package database

import (
	"time"

	"media-bridge/internal/mediatypes"
)

// Asset is one indexed media file.
type Asset struct {
	ID          string
	Path        string // relative to the media directory, slash separated
	Filename    string
	Kind        mediatypes.FileType
	Width       int
	Height      int
	Duration    float64 // seconds, videos only
	Orientation int     // clockwise rotation in degrees needed for display
	CreatedAt   time.Time
	Latitude    *float64
	Longitude   *float64
	Hidden      bool
	Size        int64
	ModTime     time.Time
}

// HasLocation reports whether the asset carries GPS coordinates.
func (a Asset) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// CollectionKind distinguishes the collection families the indexer builds.
type CollectionKind string

const (
	// CollectionKindSmart is a system collection such as the whole library.
	CollectionKindSmart CollectionKind = "smart"
	// CollectionKindAlbum is a directory that directly contains media.
	CollectionKindAlbum CollectionKind = "album"
	// CollectionKindFolder groups albums and never contains assets itself.
	CollectionKindFolder CollectionKind = "folder"
	// CollectionKindMoment groups assets created on the same day.
	CollectionKindMoment CollectionKind = "moment"
)

// Smart collection subtypes.
const (
	SubtypeLibrary = "library"
	SubtypeVideos  = "videos"
	SubtypeImages  = "images"
	SubtypeRecent  = "recent"
	SubtypeHidden  = "hidden"
)

// Collection is a named grouping of assets.
type Collection struct {
	ID             string
	Kind           CollectionKind
	Subtype        string
	Title          string // empty when the collection has no title
	ParentID       string
	StartDate      time.Time
	EndDate        time.Time
	SortOrder      int
	EstimatedCount int
}

// CanContainAssets reports whether assets can be members of c.
func (c Collection) CanContainAssets() bool {
	return c.Kind != CollectionKindFolder
}

// CollectionQuery selects collections by family.
type CollectionQuery struct {
	Kinds    []CollectionKind
	Subtype  string // optional exact match
	TopLevel bool   // only collections without a parent
}

// AssetQuery selects assets for enumeration. Results are always ordered
// newest first, ties broken by ID.
type AssetQuery struct {
	Kind         mediatypes.FileType // empty for all kinds
	CollectionID string              // empty for the whole library
	Limit        int                 // 0 for unbounded
}

// CollectionRecord is a collection together with its member asset IDs, as
// written by the indexer.
type CollectionRecord struct {
	Collection
	AssetIDs []string
}

// Fingerprint identifies the on-disk version of an indexed file.
type Fingerprint struct {
	Size    int64
	ModTime time.Time
}

// IndexStats summarizes the store contents.
type IndexStats struct {
	TotalAssets       int            `json:"totalAssets"`
	AssetsByKind      map[string]int `json:"assetsByKind"`
	CollectionsByKind map[string]int `json:"collectionsByKind"`
	LastIndexed       time.Time      `json:"lastIndexed"`
	IndexDuration     string         `json:"indexDuration"`
}

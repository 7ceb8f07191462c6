package library

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/mediatypes"
)

const (
	uriScheme = "media-library"
	uriHost   = "asset"
)

// AssetRecord is one asset as returned by the photo and video listings.
type AssetRecord struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	MediaType   mediatypes.MediaKind `json:"mediaType"`
	ContentType string               `json:"contentType"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	Date        string               `json:"date"`
	Timestamp   int64                `json:"timestamp"`
	Latitude    *float64             `json:"latitude,omitempty"`
	Longitude   *float64             `json:"longitude,omitempty"`
	URI         string               `json:"uri"`
}

// NewAssetRecord builds the caller-facing record of a classified asset.
func NewAssetRecord(a database.Asset, c mediatypes.Classification) AssetRecord {
	r := AssetRecord{
		ID:          a.ID,
		Name:        c.Name,
		MediaType:   c.Kind,
		ContentType: c.MimeType,
		Width:       a.Width,
		Height:      a.Height,
		Date:        a.CreatedAt.Format(time.RFC3339),
		Timestamp:   a.CreatedAt.UnixMilli(),
		URI:         AssetURI(a.ID, c.Extension),
	}
	if a.HasLocation() {
		r.Latitude, r.Longitude = a.Latitude, a.Longitude
	}
	return r
}

// AssetURI returns media-library://asset/asset.<ext>?id=<id>&ext=<ext>, using
// the identifier up to its first slash and the lower-case extension.
func AssetURI(id, ext string) string {
	short, _, _ := strings.Cut(id, "/")
	ext = strings.ToLower(ext)

	q := url.Values{}
	q.Set("id", short)
	q.Set("ext", ext)
	u := url.URL{
		Scheme:   uriScheme,
		Host:     uriHost,
		Path:     "/asset." + ext,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ParseAssetURI extracts the identifier and extension from an asset URI.
func ParseAssetURI(raw string) (id, ext string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid asset uri: %w", err)
	}
	if u.Scheme != uriScheme || u.Host != uriHost {
		return "", "", fmt.Errorf("invalid asset uri %q", raw)
	}

	q := u.Query()
	id, ext = q.Get("id"), q.Get("ext")
	if id == "" {
		return "", "", ErrAssetIDMissing
	}
	return id, ext, nil
}

package database

import (
	"strings"

	"github.com/google/uuid"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("media-bridge"))

// assetIDSuffix mirrors the local identifier shape of device photo
// libraries, where everything after the first slash is a resource locator.
const assetIDSuffix = "/L0/001"

// AssetID returns the stable identifier for the file at relPath.
func AssetID(relPath string) string {
	return strings.ToUpper(uuid.NewSHA1(idNamespace, []byte("asset:"+relPath)).String()) + assetIDSuffix
}

// CollectionID returns the stable identifier for a collection.
func CollectionID(kind CollectionKind, key string) string {
	return strings.ToUpper(uuid.NewSHA1(idNamespace, []byte(string(kind)+":"+key)).String())
}

// CanonicalAssetID accepts either a full asset identifier or the part before
// its first slash, as carried by asset URIs, and returns the full identifier.
func CanonicalAssetID(id string) string {
	if id == "" || strings.Contains(id, "/") {
		return id
	}
	return strings.ToUpper(id) + assetIDSuffix
}

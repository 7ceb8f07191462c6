// Package library implements the media library bridge operations: collection
// resolution, paginated photo and video listings, thumbnail and image
// rendering, and video export.
//
// Listings are single-flight. A second listing while one runs fails with
// ErrBusy until the first finishes or Cancel is called.
package library

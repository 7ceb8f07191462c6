// Package handlers provides the HTTP bridge to the media library.
//
// It includes handlers for:
//   - Authorization status and requests
//   - Collection listing and paginated photo and video listings
//   - Thumbnails, full images and streamed video exports
//   - Health checks, version information and re-indexing
package handlers

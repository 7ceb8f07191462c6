// Package database is the SQLite asset store behind the media bridge.
//
// It holds:
//   - assets: one row per indexed media file with dimensions, creation
//     time, optional GPS coordinates and a store-level kind
//   - collections: smart collections, albums, folders and moments, rebuilt
//     wholesale by the indexer after each run
//   - collection_assets: membership
//   - metadata: small key/value state such as the last index run
//
// Asset enumeration is ordered newest first with ties broken by ID and is
// exposed as an iter.Seq2 that reads in pages, so a long listing never holds
// the store lock while the caller works. The database uses WAL mode for
// concurrent reads while the indexer writes.
package database

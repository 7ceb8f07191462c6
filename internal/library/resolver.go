package library

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"media-bridge/internal/database"
)

// CollectionMode selects a family of collections.
type CollectionMode string

// Collection modes.
const (
	ModeRoll    CollectionMode = "ROLL"
	ModeSmart   CollectionMode = "SMART"
	ModeAlbums  CollectionMode = "ALBUMS"
	ModeMoments CollectionMode = "MOMENTS"
)

const untitledCollection = "No Name"

// ParseCollectionMode validates a selector. An empty selector means ROLL.
func ParseCollectionMode(s string) (CollectionMode, error) {
	switch mode := CollectionMode(strings.TrimSpace(s)); mode {
	case "":
		return ModeRoll, nil
	case ModeRoll, ModeSmart, ModeAlbums, ModeMoments:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCollectionMode, s)
	}
}

func (m CollectionMode) query() database.CollectionQuery {
	switch m {
	case ModeSmart:
		return database.CollectionQuery{Kinds: []database.CollectionKind{database.CollectionKindSmart}}
	case ModeAlbums:
		return database.CollectionQuery{
			Kinds:    []database.CollectionKind{database.CollectionKindAlbum, database.CollectionKindFolder},
			TopLevel: true,
		}
	case ModeMoments:
		return database.CollectionQuery{Kinds: []database.CollectionKind{database.CollectionKindMoment}}
	default:
		return database.CollectionQuery{
			Kinds:   []database.CollectionKind{database.CollectionKindSmart},
			Subtype: database.SubtypeLibrary,
		}
	}
}

// CollectionDescriptor is a collection as reported to callers. Count is the
// estimated number of assets, encoded as a string.
type CollectionDescriptor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count string `json:"count"`
}

// ResolveCollections returns the collections selected by mode in store order,
// dropping those that cannot contain assets.
func ResolveCollections(ctx context.Context, store Store, mode CollectionMode) ([]database.Collection, error) {
	collections, err := store.Collections(ctx, mode.query())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s collections: %w", mode, err)
	}
	return assetContainers(collections), nil
}

func assetContainers(collections []database.Collection) []database.Collection {
	kept := collections[:0:0]
	for _, c := range collections {
		if c.CanContainAssets() {
			kept = append(kept, c)
		}
	}
	return kept
}

func describe(c database.Collection) CollectionDescriptor {
	name := c.Title
	if name == "" {
		name = untitledCollection
	}
	return CollectionDescriptor{ID: c.ID, Name: name, Count: strconv.Itoa(c.EstimatedCount)}
}

// Package bootstrap prepares the TradeCo MongoDB database: it creates the
// users and products collections, declares their indexes and can seed an
// administrator account. Every step is safe to repeat.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNilTarget is returned when Run is given no database.
var ErrNilTarget = errors.New("bootstrap: target is nil")

// Target is the slice of a database the bootstrap needs.
type Target interface {
	CollectionNames(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error

	// CreateIndexes declares indexes on a collection. Declaring an index that
	// already exists with the same name and keys must succeed without change.
	CreateIndexes(ctx context.Context, collection string, indexes []Index) error
}

// Report lists what a Run changed.
type Report struct {
	CreatedCollections  []string
	ExistingCollections []string
	DeclaredIndexes     map[string][]string
}

// Run applies schema to target. Existing collections are kept as they are and
// indexes are declared by name, so a second Run changes nothing.
func Run(ctx context.Context, target Target, schema Schema, logger zerolog.Logger) (*Report, error) {
	if target == nil {
		return nil, ErrNilTarget
	}

	names, err := target.CollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: list collections: %w", err)
	}
	existing := make(map[string]bool, len(names))
	for _, n := range names {
		existing[n] = true
	}

	report := &Report{DeclaredIndexes: make(map[string][]string)}
	for _, coll := range schema.Collections {
		if existing[coll.Name] {
			report.ExistingCollections = append(report.ExistingCollections, coll.Name)
			logger.Info().Str("collection", coll.Name).Msg("collection exists")
		} else {
			if err := target.CreateCollection(ctx, coll.Name); err != nil {
				return report, fmt.Errorf("bootstrap: create collection %s: %w", coll.Name, err)
			}
			report.CreatedCollections = append(report.CreatedCollections, coll.Name)
			logger.Info().Str("collection", coll.Name).Msg("collection created")
		}

		if len(coll.Indexes) == 0 {
			continue
		}
		if err := target.CreateIndexes(ctx, coll.Name, coll.Indexes); err != nil {
			return report, fmt.Errorf("bootstrap: create indexes on %s: %w", coll.Name, err)
		}
		for _, idx := range coll.Indexes {
			report.DeclaredIndexes[coll.Name] = append(report.DeclaredIndexes[coll.Name], idx.Name)
			logger.Info().Str("collection", coll.Name).Str("index", idx.Name).Bool("unique", idx.Unique).Msg("index declared")
		}
	}
	logger.Info().Str("database", schema.Database).Msg("database initialised")
	return report, nil
}

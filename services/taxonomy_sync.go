package services

import (
	"context"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rs/zerolog"
)

// CountSync keeps the cached item counts of classifications and tags equal to
// the live number of associated posts. Every recompute reads the live count
// and overwrites the cached value, so a missed update heals on the next one.
type CountSync struct {
	logger zerolog.Logger
}

func NewCountSync(logger zerolog.Logger) CountSync {
	return CountSync{logger: logger.With().Str("service", "countSync").Logger()}
}

// RecomputeClassifications refreshes the counts of the named classifications. Empty names are skipped.
func (c CountSync) RecomputeClassifications(ctx context.Context, store database.Store, names ...string) {
	c.recompute(ctx, store, "classification", database.Store.Classifications, names)
}

// RecomputeTags refreshes the counts of the named tags. Empty names are skipped.
func (c CountSync) RecomputeTags(ctx context.Context, store database.Store, names ...string) {
	c.recompute(ctx, store, "tag", database.Store.Tags, names)
}

// RecountAll recomputes every classification and tag and returns how many cached values changed.
func (c CountSync) RecountAll(ctx context.Context, store database.Store) (int, error) {
	changed := 0
	for kind, repo := range map[string]database.TaxonomyRepository{
		"classification": store.Classifications(),
		"tag":            store.Tags(),
	} {
		entries, err := repo.FindAll(ctx)
		if err != nil {
			return changed, err
		}
		for _, entry := range entries {
			updated, err := c.recomputeOne(ctx, repo, entry.Name, entry.ItemCount)
			if err != nil {
				return changed, err
			}
			if updated {
				changed++
			}
		}
		c.logger.Info().Str("kind", kind).Int("entries", len(entries)).Msg("recounted taxonomy")
	}
	return changed, nil
}

// recompute runs each entry in its own nested transaction. On postgres that is
// a savepoint, so a failed statement rolls back only that entry and leaves the
// surrounding transaction usable.
func (c CountSync) recompute(ctx context.Context, store database.Store, kind string, repoOf func(database.Store) database.TaxonomyRepository, names []string) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		err := store.Transaction(ctx, func(sp database.Store) error {
			repo := repoOf(sp)
			entry, err := repo.FindByName(ctx, name)
			if err != nil {
				return err
			}
			_, err = c.recomputeOne(ctx, repo, name, entry.ItemCount)
			return err
		})
		if err != nil {
			c.logger.Error().Err(err).Str("kind", kind).Str("name", name).Msg("count sync failed, cached count left stale")
		}
	}
}

// recomputeOne writes the live count when it differs from cached.
func (c CountSync) recomputeOne(ctx context.Context, repo database.TaxonomyRepository, name string, cached int) (bool, error) {
	live, err := repo.CountPosts(ctx, name)
	if err != nil {
		return false, err
	}
	if int(live) == cached {
		return false, nil
	}
	if err := repo.SetItemCount(ctx, name, int(live)); err != nil {
		return false, err
	}
	return true, nil
}

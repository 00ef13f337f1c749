package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/movieontip/movieontip/internal/catalog"
)

// Seed is a json-server style database file: category name to records.
type Seed map[string][]Record

// LoadSeed reads a seed from a .json or .yaml/.yml file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data, filepath.Ext(path))
}

// ParseSeed decodes seed data. ext selects the format; anything other
// than ".json" is treated as YAML.
func ParseSeed(data []byte, ext string) (Seed, error) {
	var seed Seed
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON seed: %w", err)
		}
		return seed, nil
	}

	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML seed: %w", err)
	}
	return seed, nil
}

// Categories returns the seed's category names, sorted, always including
// the favourites category.
func (s Seed) Categories() []string {
	names := make([]string, 0, len(s)+1)
	hasFavourites := false
	for name := range s {
		names = append(names, name)
		if name == catalog.FavouritesCategory {
			hasFavourites = true
		}
	}
	if !hasFavourites {
		names = append(names, catalog.FavouritesCategory)
	}
	sort.Strings(names)
	return names
}

// Apply loads seed into the store in one transaction and returns the
// number of records inserted.
func (s *Store) Apply(ctx context.Context, seed Seed) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for pos, name := range seed.Categories() {
		if !catalog.ValidCategory(name) {
			return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, position) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
			name, pos); err != nil {
			return 0, fmt.Errorf("failed to create category %q: %w", name, err)
		}

		for _, rec := range seed[name] {
			if _, err := s.insert(ctx, tx, name, rec); err != nil {
				return 0, err
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	s.logger.Info().Int("records", inserted).Int("categories", len(seed.Categories())).Msg("Seeded catalog")
	return inserted, nil
}

// SeedIfEmpty applies seed only when the store holds no records.
func (s *Store) SeedIfEmpty(ctx context.Context, seed Seed) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug().Int("records", n).Msg("Catalog already seeded")
		return 0, nil
	}
	return s.Apply(ctx, seed)
}

package s1_universe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sp500-screener/internal/contracts"
)

// Repository handles data persistence for S1
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SaveUniverse saves a universe snapshot, one row per day
func (r *Repository) SaveUniverse(ctx context.Context, universe *contracts.Universe) error {
	excludedJSON, err := json.Marshal(universe.Excluded)
	if err != nil {
		return fmt.Errorf("marshal excluded: %w", err)
	}

	query := `
		INSERT INTO screener.universe_snapshots (
			snapshot_date,
			source,
			symbols,
			total_count,
			excluded,
			created_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (snapshot_date) DO UPDATE SET
			source = EXCLUDED.source,
			symbols = EXCLUDED.symbols,
			total_count = EXCLUDED.total_count,
			excluded = EXCLUDED.excluded,
			created_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		universe.Date,
		universe.Source,
		universe.Symbols(),
		universe.TotalCount,
		excludedJSON,
	)
	if err != nil {
		return fmt.Errorf("insert universe: %w", err)
	}

	return nil
}

// GetLatestUniverse retrieves the most recent snapshot. Only symbols are
// stored, so constituents come back without name or sector.
func (r *Repository) GetLatestUniverse(ctx context.Context) (*contracts.Universe, error) {
	query := `
		SELECT
			snapshot_date,
			source,
			symbols,
			total_count,
			excluded
		FROM screener.universe_snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	universe := &contracts.Universe{
		Excluded: make(map[string]string),
	}

	var (
		symbols      []string
		excludedJSON []byte
	)
	err := r.db.QueryRow(ctx, query).Scan(
		&universe.Date,
		&universe.Source,
		&symbols,
		&universe.TotalCount,
		&excludedJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("query latest universe: %w", err)
	}

	universe.Constituents = make([]contracts.Constituent, len(symbols))
	for i, s := range symbols {
		universe.Constituents[i] = contracts.Constituent{Symbol: s}
	}

	if len(excludedJSON) > 0 {
		if err := json.Unmarshal(excludedJSON, &universe.Excluded); err != nil {
			return nil, fmt.Errorf("unmarshal excluded: %w", err)
		}
	}

	return universe, nil
}

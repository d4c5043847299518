package s1_universe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
	"github.com/wonny/sp500-screener/pkg/redis"
)

// Universe sources
const (
	SourceWikipedia = "wikipedia"
	SourceFile      = "file"
)

// Exclusion reasons
const (
	ReasonEmptySymbol = "empty symbol"
	ReasonDuplicate   = "duplicate symbol"
)

// ConstituentSource lists raw index members
type ConstituentSource interface {
	FetchConstituents(ctx context.Context) ([]contracts.Constituent, error)
}

// Builder resolves the screenable constituents
type Builder struct {
	source ConstituentSource
	file   string
	cache  *redis.Cache
	logger *logger.Logger
	now    func() time.Time
}

// NewBuilder creates a new Universe Builder. A non-empty file overrides the
// remote source.
func NewBuilder(source ConstituentSource, file string, cache *redis.Cache, log *logger.Logger) *Builder {
	return &Builder{
		source: source,
		file:   file,
		cache:  cache,
		logger: log.WithField("module", "s1_universe"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithFile returns a copy of the builder reading the given file
func (b *Builder) WithFile(file string) *Builder {
	cp := *b
	cp.file = file
	return &cp
}

// Build constructs the universe
// ⭐ SSOT: S1 → S0 유니버스 생성
func (b *Builder) Build(ctx context.Context) (*contracts.Universe, error) {
	raw, source, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	universe := Clean(raw)
	universe.Date = b.now().Truncate(24 * time.Hour)
	universe.Source = source

	if universe.Count() == 0 {
		return nil, fmt.Errorf("universe from %s is empty", source)
	}

	b.logger.WithFields(map[string]interface{}{
		"source":   source,
		"total":    universe.TotalCount,
		"eligible": universe.Count(),
		"excluded": len(universe.Excluded),
	}).Info("Universe built")

	return universe, nil
}

func (b *Builder) load(ctx context.Context) ([]contracts.Constituent, string, error) {
	if b.file != "" {
		constituents, err := LoadFile(b.file)
		if err != nil {
			return nil, "", err
		}
		return constituents, SourceFile, nil
	}

	if b.source == nil {
		return nil, "", fmt.Errorf("no universe source configured")
	}

	var constituents []contracts.Constituent
	if found, err := b.cache.Get(ctx, redis.UniverseKey(SourceWikipedia), &constituents); err != nil {
		b.logger.WithError(err).Warn("Universe cache read failed")
	} else if found {
		b.logger.Debug("Universe served from cache")
		return constituents, SourceWikipedia, nil
	}

	constituents, err := b.source.FetchConstituents(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("fetch constituents: %w", err)
	}

	if err := b.cache.Set(ctx, redis.UniverseKey(SourceWikipedia), constituents, redis.TTLDaily); err != nil {
		b.logger.WithError(err).Warn("Universe cache write failed")
	}

	return constituents, SourceWikipedia, nil
}

// Clean trims fields and moves empty or repeated symbols into Excluded.
// Source order is kept; the first occurrence of a symbol wins.
func Clean(raw []contracts.Constituent) *contracts.Universe {
	universe := &contracts.Universe{
		Constituents: make([]contracts.Constituent, 0, len(raw)),
		Excluded:     make(map[string]string),
		TotalCount:   len(raw),
	}

	seen := make(map[string]bool, len(raw))
	for i, c := range raw {
		c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
		c.Name = strings.TrimSpace(c.Name)
		c.Sector = strings.TrimSpace(c.Sector)
		c.SubIndustry = strings.TrimSpace(c.SubIndustry)

		if c.Symbol == "" {
			universe.Excluded[fmt.Sprintf("#%d", i+1)] = ReasonEmptySymbol
			continue
		}
		if seen[c.Symbol] {
			universe.Excluded[c.Symbol] = ReasonDuplicate
			continue
		}
		seen[c.Symbol] = true
		universe.Constituents = append(universe.Constituents, c)
	}

	return universe
}

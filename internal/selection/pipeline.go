package selection

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// Pipeline runs the two screening phases over a materialized record set:
// sector baselines from every record, then per-record verdicts.
// ⭐ SSOT: S3 리포트 조립은 여기서만
type Pipeline struct {
	screener *Screener
	now      func() time.Time
	logger   *logger.Logger
}

// NewPipeline creates a pipeline stamping reports with the UTC wall clock
func NewPipeline(screener *Screener, log *logger.Logger) *Pipeline {
	return &Pipeline{
		screener: screener,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.WithField("module", "pipeline"),
	}
}

// WithClock overrides the report timestamp source
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run screens records and assembles the report in input order.
// Empty or duplicate symbols are a contract violation.
func (p *Pipeline) Run(records []contracts.CanonicalRecord) (*contracts.Report, error) {
	if err := validateIdentity(records); err != nil {
		return nil, err
	}

	// Phase 1: 전체 입력 기준 섹터 평균 (판정 전에 확정)
	baselines := ComputeSectorBaselines(records)

	// Phase 2: 판정
	failures, rejections := p.screener.Screen(records, baselines)

	results := make([]contracts.ScreeningResult, len(records))
	passed := 0
	for i, rec := range records {
		results[i] = contracts.ScreeningResult{
			CanonicalRecord: rec,
			Passed:          failures[i] == "",
			FailedFilter:    failures[i],
		}
		if results[i].Passed {
			passed++
		}
	}

	report := &contracts.Report{
		Metadata: contracts.ReportMetadata{
			GeneratedAt: p.now(),
			TotalCount:  len(records),
			PassedCount: passed,
			Rejections:  rejections,
		},
		SectorBaselines: baselines,
		Results:         results,
	}

	p.logger.WithFields(map[string]interface{}{
		"total":   report.Metadata.TotalCount,
		"passed":  report.Metadata.PassedCount,
		"sectors": len(baselines),
	}).Info("Screening pipeline completed")

	return report, nil
}

func validateIdentity(records []contracts.CanonicalRecord) error {
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Symbol) == "" {
			return fmt.Errorf("%w: record %d has empty symbol", contracts.ErrInvalidInput, i)
		}
		if j, dup := seen[rec.Symbol]; dup {
			return fmt.Errorf("%w: duplicate symbol %s at records %d and %d", contracts.ErrInvalidInput, rec.Symbol, j, i)
		}
		seen[rec.Symbol] = i
	}
	return nil
}

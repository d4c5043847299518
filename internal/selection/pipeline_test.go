package selection

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

var fixedNow = time.Date(2024, 6, 3, 21, 30, 0, 0, time.UTC)

func newTestPipeline() *Pipeline {
	log := logger.NewNop()
	return NewPipeline(NewScreener(log), log).WithClock(func() time.Time { return fixedNow })
}

func TestPipeline_TwoInstrumentScenario(t *testing.T) {
	a := passingRecord("A")
	b := passingRecord("B")
	b.RSI14 = contracts.Float(55)

	report, err := newTestPipeline().Run([]contracts.CanonicalRecord{a, b})
	require.NoError(t, err)

	// 섹터 평균 = {18, 18} → 18.00, fpe < 18 불만족 → A 도 탈락
	assert.Equal(t, contracts.SectorBaselines{"Tech": 18}, report.SectorBaselines)
	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Passed)
	assert.Equal(t, FilterForwardPE, report.Results[0].FailedFilter)
	assert.False(t, report.Results[1].Passed)
	assert.Equal(t, FilterRSI, report.Results[1].FailedFilter)

	assert.Equal(t, 0, report.Metadata.PassedCount)
	assert.Equal(t, 2, report.Metadata.TotalCount)
	assert.Equal(t, fixedNow, report.Metadata.GeneratedAt)
}

func TestPipeline_PassesBelowSectorMean(t *testing.T) {
	cheap := passingRecord("CHEAP")
	cheap.ForwardPE = contracts.Float(15)
	pricey := passingRecord("PRICEY")
	pricey.ForwardPE = contracts.Float(30)
	noRSI := passingRecord("NORSI")
	noRSI.ForwardPE = contracts.Float(15)
	noRSI.RSI14 = nil

	report, err := newTestPipeline().Run([]contracts.CanonicalRecord{cheap, pricey, noRSI})
	require.NoError(t, err)

	assert.Equal(t, 20.0, report.SectorBaselines["Tech"])
	assert.True(t, report.Results[0].Passed)
	assert.Empty(t, report.Results[0].FailedFilter)
	assert.False(t, report.Results[1].Passed)
	assert.False(t, report.Results[2].Passed, "absent RSI fails even when everything else holds")

	assert.Equal(t, 1, report.Metadata.PassedCount)
	assert.Equal(t, 1, report.Metadata.Rejections[FilterForwardPE])
	assert.Equal(t, 1, report.Metadata.Rejections[FilterRSI])

	passed := report.Passed()
	require.Len(t, passed, 1)
	assert.Equal(t, "CHEAP", passed[0].Symbol)
}

func TestPipeline_SectorWithoutBaseline(t *testing.T) {
	energy := passingRecord("XOM")
	energy.Sector = "Energy"
	energy.ForwardPE = contracts.Float(-3)

	report, err := newTestPipeline().Run([]contracts.CanonicalRecord{energy})
	require.NoError(t, err)

	assert.Empty(t, report.SectorBaselines)
	assert.False(t, report.Results[0].Passed)
}

func TestPipeline_PreservesOrderAndRecords(t *testing.T) {
	symbols := []string{"Z", "A", "M", "B"}
	records := make([]contracts.CanonicalRecord, len(symbols))
	for i, s := range symbols {
		records[i] = passingRecord(s)
	}

	report, err := newTestPipeline().Run(records)
	require.NoError(t, err)

	for i, res := range report.Results {
		assert.Equal(t, symbols[i], res.Symbol)
		if diff := cmp.Diff(records[i], res.CanonicalRecord); diff != "" {
			t.Errorf("record %d changed (-want +got):\n%s", i, diff)
		}
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	records := []contracts.CanonicalRecord{passingRecord("A"), passingRecord("B")}
	records[1].ForwardPE = contracts.Float(10)

	p := newTestPipeline()
	first, err := p.Run(records)
	require.NoError(t, err)
	second, err := p.Run(records)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestPipeline_Empty(t *testing.T) {
	report, err := newTestPipeline().Run(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Metadata.TotalCount)
	assert.Equal(t, 0, report.Metadata.PassedCount)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.SectorBaselines)
}

func TestPipeline_InvalidIdentity(t *testing.T) {
	tests := []struct {
		name    string
		records []contracts.CanonicalRecord
	}{
		{"empty symbol", []contracts.CanonicalRecord{passingRecord("A"), passingRecord(" ")}},
		{"duplicate symbol", []contracts.CanonicalRecord{passingRecord("A"), passingRecord("B"), passingRecord("A")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := newTestPipeline().Run(tt.records)
			assert.Nil(t, report)
			assert.True(t, errors.Is(err, contracts.ErrInvalidInput))
		})
	}
}

func TestPipeline_DefaultClockIsUTC(t *testing.T) {
	log := logger.NewNop()
	report, err := NewPipeline(NewScreener(log), log).Run(nil)
	require.NoError(t, err)

	assert.Equal(t, time.UTC, report.Metadata.GeneratedAt.Location())
	assert.WithinDuration(t, time.Now(), report.Metadata.GeneratedAt, time.Minute)
}

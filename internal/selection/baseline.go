package selection

import (
	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/numeric"
)

// ComputeSectorBaselines returns the mean positive forward P/E per sector, 2 dp.
// Records without a sector, or with absent/zero/negative forward P/E, do not
// contribute; a sector with no qualifying value has no entry.
// ⭐ SSOT: 섹터 기준 PER 계산은 여기서만
func ComputeSectorBaselines(records []contracts.CanonicalRecord) contracts.SectorBaselines {
	bySector := make(map[string][]float64)
	for _, rec := range records {
		if rec.Sector == "" || rec.ForwardPE == nil {
			continue
		}
		fpe := *rec.ForwardPE
		if !numeric.Finite(fpe) || fpe <= 0 {
			continue
		}
		bySector[rec.Sector] = append(bySector[rec.Sector], fpe)
	}

	baselines := make(contracts.SectorBaselines, len(bySector))
	for sector, values := range bySector {
		mean, ok := numeric.Mean(values)
		if !ok {
			continue
		}
		baselines[sector] = numeric.Round2(mean)
	}
	return baselines
}

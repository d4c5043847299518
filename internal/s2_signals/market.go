package s2_signals

import (
	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/numeric"
)

// MarketRegimeFrom summarizes the index trend from its daily closes.
// Parts that cannot be computed stay nil; the comparison uses rounded values.
func MarketRegimeFrom(series contracts.PriceSeries) contracts.MarketRegime {
	var regime contracts.MarketRegime

	last, ok := series.Last()
	if ok && numeric.Finite(last.Close) {
		price := numeric.Round2(last.Close)
		regime.SP500Price = &price
	}

	regime.SP500SMA200 = SMA(series.Closes(), SMAWindow)

	if regime.SP500Price != nil && regime.SP500SMA200 != nil {
		above := *regime.SP500Price > *regime.SP500SMA200
		regime.SP500AboveSMA200 = &above
	}

	return regime
}

package contracts

import "context"

// UniverseBuilder resolves the constituent list (S1)
// ⭐ SSOT: S1 유니버스 생성 인터페이스
type UniverseBuilder interface {
	Build(ctx context.Context) (*Universe, error)
}

// InstrumentCollector fetches raw data for every constituent (S0).
// Failed or ineligible symbols are dropped, not returned as errors.
// ⭐ SSOT: S0 수집 인터페이스
type InstrumentCollector interface {
	Collect(ctx context.Context, universe *Universe) ([]RawInstrument, error)
	FetchIndex(ctx context.Context, symbol string) (PriceSeries, error)
}

// SignalBuilder turns raw instruments into canonical records (S2)
// ⭐ SSOT: S2 시그널 생성 인터페이스
type SignalBuilder interface {
	Build(ctx context.Context, raws []RawInstrument) ([]CanonicalRecord, error)
}

// ReportStore persists and reloads reports (S4)
type ReportStore interface {
	Save(ctx context.Context, report *Report) error
	Latest(ctx context.Context) (*Report, error)
}

// ReportPublisher pushes a freshly built report to live subscribers
type ReportPublisher interface {
	Publish(report *Report)
}

package contracts

import (
	"fmt"
	"time"
)

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is the daily close history of one instrument
// ⭐ SSOT: S0 → S2 가격 히스토리 전달 (날짜 오름차순, 중복 없음)
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Validate checks dates are strictly ascending
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1].Date, s.Points[i].Date
		if cur.Equal(prev) {
			return fmt.Errorf("%w: %s duplicate date %s", ErrInvalidInput, s.Symbol, cur.Format("2006-01-02"))
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w: %s dates out of order at %s", ErrInvalidInput, s.Symbol, cur.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns close values in date order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Len returns the number of points
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Last returns the most recent point
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

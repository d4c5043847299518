package contracts

import "time"

// Constituent is one index member as listed by the universe source
type Constituent struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	Name        string `json:"name" yaml:"name"`
	Sector      string `json:"sector" yaml:"sector"`
	SubIndustry string `json:"sub_industry" yaml:"sub_industry"`
}

// Universe represents the screenable constituents passed from S1 to S0
// ⭐ SSOT: S1 → S0 수집 대상 종목 전달
type Universe struct {
	Date         time.Time         `json:"date"`
	Source       string            `json:"source"`
	Constituents []Constituent     `json:"constituents"`
	Excluded     map[string]string `json:"excluded"`              // 제외 종목: 사유
	TotalCount   int               `json:"total_count,omitempty"` // 원본 행 수
}

// Contains checks if a symbol is in the universe
func (u *Universe) Contains(symbol string) bool {
	for _, c := range u.Constituents {
		if c.Symbol == symbol {
			return true
		}
	}
	return false
}

// IsExcluded checks if a symbol is excluded with reason
func (u *Universe) IsExcluded(symbol string) (bool, string) {
	reason, exists := u.Excluded[symbol]
	return exists, reason
}

// Count returns the number of screenable constituents
func (u *Universe) Count() int {
	return len(u.Constituents)
}

// Symbols returns constituent symbols in source order
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.Constituents))
	for i, c := range u.Constituents {
		out[i] = c.Symbol
	}
	return out
}

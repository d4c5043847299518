package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/wonny/sp500-screener/internal/contracts"
)

// csvRow is one flat line of the CSV export; absent values are empty cells
type csvRow struct {
	Symbol             string `csv:"symbol"`
	Name               string `csv:"name"`
	Sector             string `csv:"sector"`
	SubIndustry        string `csv:"sub_industry"`
	Passed             bool   `csv:"passed_filter"`
	FailedFilter       string `csv:"failed_filter"`
	CurrentPrice       string `csv:"current_price"`
	MarketCap          string `csv:"market_cap"`
	ForwardPE          string `csv:"forward_pe"`
	SectorForwardPE    string `csv:"sector_forward_pe"`
	TrailingPE         string `csv:"trailing_pe"`
	EarningsGrowth     string `csv:"earnings_growth"`
	RevenueGrowth      string `csv:"revenue_growth"`
	RSI                string `csv:"rsi"`
	SMA200             string `csv:"sma_200"`
	PctFromSMA200      string `csv:"pct_from_200dma"`
	FiftyTwoWeekHigh   string `csv:"fifty_two_week_high"`
	PctFromHigh        string `csv:"pct_from_high"`
	Recommendation     string `csv:"recommendation"`
	RecommendationMean string `csv:"recommendation_mean"`
	DividendYield      string `csv:"dividend_yield"`
	Beta               string `csv:"beta"`
}

// WriteCSV writes one row per result in report order
func WriteCSV(w io.Writer, report *contracts.Report) error {
	rows := make([]*csvRow, 0, len(report.Results))
	for _, res := range report.Results {
		row := &csvRow{
			Symbol:             res.Symbol,
			Name:               res.Name,
			Sector:             res.Sector,
			SubIndustry:        res.SubIndustry,
			Passed:             res.Passed,
			FailedFilter:       res.FailedFilter,
			CurrentPrice:       cell(res.CurrentPrice),
			MarketCap:          cell(res.MarketCap),
			ForwardPE:          cell(res.ForwardPE),
			TrailingPE:         cell(res.TrailingPE),
			EarningsGrowth:     cell(res.EarningsGrowth),
			RevenueGrowth:      cell(res.RevenueGrowth),
			RSI:                cell(res.RSI14),
			SMA200:             cell(res.SMA200),
			PctFromSMA200:      cell(res.PctFromSMA200),
			FiftyTwoWeekHigh:   cell(res.FiftyTwoWeekHigh),
			PctFromHigh:        cell(res.PctFrom52WHigh),
			Recommendation:     res.RecommendationKey,
			RecommendationMean: cell(res.RecommendationMean),
			DividendYield:      cell(res.DividendYield),
			Beta:               cell(res.Beta),
		}
		if v, ok := report.SectorBaselines.Get(res.Sector); ok {
			row.SectorForwardPE = strconv.FormatFloat(v, 'f', -1, 64)
		}
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes the CSV export to path, creating parent directories
func WriteCSVFile(path string, report *contracts.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteCSV(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

func sampleReport() *contracts.Report {
	above := true
	return &contracts.Report{
		Metadata: contracts.ReportMetadata{
			GeneratedAt: time.Date(2024, 6, 3, 21, 30, 0, 0, time.UTC),
			TotalCount:  2,
			PassedCount: 1,
			Rejections:  map[string]int{"rsi_below_40": 1},
			MarketRegime: contracts.MarketRegime{
				SP500Price:       contracts.Float(5283.4),
				SP500SMA200:      contracts.Float(4900.12),
				SP500AboveSMA200: &above,
			},
		},
		SectorBaselines: contracts.SectorBaselines{"Health Care": 20.5},
		Results: []contracts.ScreeningResult{
			{
				CanonicalRecord: contracts.CanonicalRecord{
					Symbol: "JNJ", Name: "Johnson & Johnson", Sector: "Health Care",
					ForwardPE: contracts.Float(14.1), RecommendationKey: "buy",
					InstrumentIndicators: contracts.InstrumentIndicators{RSI14: contracts.Float(35.5)},
				},
				Passed: true,
			},
			{
				CanonicalRecord: contracts.CanonicalRecord{Symbol: "XYZ", Sector: "Energy"},
				FailedFilter:    "rsi_below_40",
			},
		},
	}
}

func TestFileStore_SaveAndLatest(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "stock_data.json"),
		filepath.Join(dir, "dashboard", "public", "stock_data.json"),
	}
	store := NewFileStore(paths, logger.NewNop())

	report := sampleReport()
	require.NoError(t, store.Save(context.Background(), report))

	first, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	second, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// 대시보드가 읽는 형태: 2칸 들여쓰기, HTML 이스케이프 없음
	assert.Contains(t, string(first), "\n  \"metadata\": {")
	assert.Contains(t, string(first), "Johnson & Johnson")

	got, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Metadata.GeneratedAt.Unix(), got.Metadata.GeneratedAt.Unix())
	assert.Equal(t, report.SectorBaselines, got.SectorBaselines)
	assert.Equal(t, report.Results, got.Results)
	assert.Equal(t, 5283.4, *got.Metadata.SP500Price)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind")
	}
}

func TestFileStore_Latest_Missing(t *testing.T) {
	store := NewFileStore([]string{filepath.Join(t.TempDir(), "none.json")}, logger.NewNop())
	_, err := store.Latest(context.Background())
	assert.ErrorIs(t, err, contracts.ErrNoReport)

	_, err = NewFileStore(nil, logger.NewNop()).Latest(context.Background())
	assert.ErrorIs(t, err, contracts.ErrNoReport)
}

func TestFileStore_Save_NoPaths(t *testing.T) {
	assert.Error(t, NewFileStore(nil, logger.NewNop()).Save(context.Background(), sampleReport()))
}

func TestEncode_NullForAbsent(t *testing.T) {
	data, err := Encode(sampleReport())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	stocks := decoded["stocks"].([]interface{})
	xyz := stocks[1].(map[string]interface{})
	assert.Contains(t, xyz, "rsi")
	assert.Nil(t, xyz["rsi"])
	assert.Equal(t, false, xyz["passed_filter"])
	assert.Equal(t, "rsi_below_40", xyz["failed_filter"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "symbol,name,sector,sub_industry,passed_filter,failed_filter,"))
	assert.Contains(t, lines[1], "JNJ,Johnson & Johnson,Health Care,,true,,")
	assert.Contains(t, lines[1], ",14.1,20.5,")
	assert.True(t, strings.HasPrefix(lines[2], "XYZ,,Energy,,false,rsi_below_40,"))
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "screen.csv")
	require.NoError(t, WriteCSVFile(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "JNJ")
}

package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// ReportHandler serves the latest screening report
// ⭐ SSOT: 리포트 조회 API 핸들러는 이 구조체에서만
type ReportHandler struct {
	store  contracts.ReportStore
	logger *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(store contracts.ReportStore, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		store:  store,
		logger: log,
	}
}

// latest loads the report or writes the error response
func (h *ReportHandler) latest(w http.ResponseWriter, r *http.Request) (*contracts.Report, bool) {
	report, err := h.store.Latest(r.Context())
	if errors.Is(err, contracts.ErrNoReport) {
		respondError(w, http.StatusNotFound, "No report available yet")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load report")
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return nil, false
	}
	return report, true
}

// GetReport returns the full report in dashboard format
// GET /api/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetStocks returns screening results
// GET /api/stocks?passed=true&sector=Health%20Care
func (h *ReportHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var passedOnly *bool
	if v := query.Get("passed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "passed must be true or false")
			return
		}
		passedOnly = &b
	}
	sector := query.Get("sector")

	report, ok := h.latest(w, r)
	if !ok {
		return
	}

	stocks := make([]contracts.ScreeningResult, 0, len(report.Results))
	for _, res := range report.Results {
		if passedOnly != nil && res.Passed != *passedOnly {
			continue
		}
		if sector != "" && !strings.EqualFold(res.Sector, sector) {
			continue
		}
		stocks = append(stocks, res)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"collected_at": report.Metadata.GeneratedAt,
		"count":        len(stocks),
		"stocks":       stocks,
	})
}

// GetStock returns one result
// GET /api/stocks/{symbol}
func (h *ReportHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	report, ok := h.latest(w, r)
	if !ok {
		return
	}

	res, found := report.Find(symbol)
	if !found {
		respondError(w, http.StatusNotFound, "symbol not in latest report")
		return
	}

	var sectorPE *float64
	if v, ok := report.SectorBaselines.Get(res.Sector); ok {
		sectorPE = contracts.Float(v)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stock":             res,
		"sector_forward_pe": sectorPE,
	})
}

// SectorItem is one row of the sectors view
type SectorItem struct {
	Sector string `json:"sector"`
	contracts.SectorSummary
}

// GetSectors returns per-sector counts and forward P/E baselines, sorted by name
// GET /api/sectors
func (h *ReportHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w, r)
	if !ok {
		return
	}

	summaries := report.Sectors()
	items := make([]SectorItem, 0, len(summaries))
	for name, s := range summaries {
		items = append(items, SectorItem{Sector: name, SectorSummary: s})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Sector < items[j].Sector })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"collected_at": report.Metadata.GeneratedAt,
		"sectors":      items,
	})
}

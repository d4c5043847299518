package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/sp500-screener/internal/contracts"
	"github.com/wonny/sp500-screener/pkg/httputil"
	"github.com/wonny/sp500-screener/pkg/logger"
)

// DefaultURL is the S&P 500 constituents list page
const DefaultURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// ErrTableNotFound is returned when the page has no constituents table
var ErrTableNotFound = errors.New("constituents table not found")

// Client scrapes the constituents table
// ⭐ SSOT: Wikipedia 구성 종목 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a new Wikipedia client
func NewClient(httpClient *httputil.Client, url string, log *logger.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "wikipedia"),
		url:        url,
	}
}

// FetchConstituents downloads and parses the constituents table
func (c *Client) FetchConstituents(ctx context.Context) ([]contracts.Constituent, error) {
	resp, err := c.httpClient.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	constituents, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(constituents)).Info("Fetched constituents")
	return constituents, nil
}

// ParseConstituents reads table#constituents. Rows with fewer than four
// cells (the header) are skipped; class-share dots become dashes (BRK.B → BRK-B).
func ParseConstituents(r io.Reader) ([]contracts.Constituent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	var out []contracts.Constituent
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		cell := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		out = append(out, contracts.Constituent{
			Symbol:      strings.ReplaceAll(cell(0), ".", "-"),
			Name:        cell(1),
			Sector:      cell(2),
			SubIndustry: cell(3),
		})
	})

	return out, nil
}

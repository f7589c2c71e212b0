package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const slickchartsSP500URL = "https://www.slickcharts.com/sp500"

// LoadSP500File reads the benchmark constituent list from a JSON file of
// the form [{"Symbol": "AAPL", ...}, ...].
func LoadSP500File(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Symbol string `json:"Symbol"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		if s := strings.TrimSpace(row.Symbol); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// ScrapeSP500 pulls the constituent table from slickcharts as a fallback
// when no local list file is configured.
func ScrapeSP500(ctx context.Context) ([]string, error) {
	body, _, err := doGet(ctx, HTTPClient, slickchartsSP500URL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse constituent page: %w", err)
	}

	var symbols []string
	seen := make(map[string]bool)
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		// Third column carries the ticker, linked to the company page.
		symbol := strings.TrimSpace(row.Find("td").Eq(2).Text())
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	})
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no constituents found in page")
	}
	return symbols, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/seenimoa/deepscreen/pkg/models"
)

const thesisSystemPrompt = `You are a buy-side analyst specializing in small and micro cap value investing.
Write a concise investment thesis (3 to 5 short paragraphs) for the company described by the fact sheet.
Cover the valuation case, balance sheet strength, capital allocation, insider behavior and key risks.
Only use the figures provided; say when an important figure is unavailable. Do not give financial advice.`

// ThesisWriter turns a screener record into a short investment thesis.
type ThesisWriter struct {
	provider Provider
	opts     ChatOptions
}

func NewThesisWriter(provider Provider, opts *ChatOptions) *ThesisWriter {
	w := &ThesisWriter{provider: provider}
	if opts != nil {
		w.opts = *opts
	}
	return w
}

// Generate produces the thesis text for one stock.
func (w *ThesisWriter) Generate(ctx context.Context, stock models.Stock) (string, error) {
	messages := []Message{
		SystemMessage(thesisSystemPrompt),
		UserMessage(FactSheet(&stock)),
	}
	resp, err := w.provider.Chat(ctx, messages, &w.opts)
	if err != nil {
		return "", fmt.Errorf("generate thesis for %s: %w", stock.Symbol, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("generate thesis for %s: empty response", stock.Symbol)
	}
	return resp.Content, nil
}

// FactSheet renders the record as a plain text block for the prompt. Missing
// metrics are listed as n/a so the model does not invent them.
func FactSheet(s *models.Stock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s (%s)\n", s.Name, s.Symbol)
	fmt.Fprintf(&b, "Sector: %s\n", orNA(s.Sector))
	fmt.Fprintf(&b, "Price: %.2f\n", s.Price)
	fmt.Fprintf(&b, "Market cap: %s\n", num(s.MarketCap))
	fmt.Fprintf(&b, "P/E (TTM): %s\n", num(s.PERatioTTM))
	fmt.Fprintf(&b, "Owner earnings yield: %s\n", pct(s.OwnerEarningsYield))
	fmt.Fprintf(&b, "P/NCAV: %s\n", num(s.PncaRatio))
	fmt.Fprintf(&b, "Net cash / market cap: %s\n", pct(s.NetCashToMarketCap))
	fmt.Fprintf(&b, "Debt/equity (TTM): %s\n", num(s.DebtEquityRatioTTM))
	fmt.Fprintf(&b, "Debt/EBITDA (TTM): %s\n", num(s.DebtToEbitdaTTM))
	fmt.Fprintf(&b, "Interest coverage (TTM): %s\n", num(s.InterestCoverageTTM))
	fmt.Fprintf(&b, "Return on tangible equity (TTM): %s\n", pct(s.ReturnOnEquityTTM))
	fmt.Fprintf(&b, "5yr avg return on tangible equity: %s\n", pct(s.AvgRotce5yr))
	fmt.Fprintf(&b, "Incremental ROIC: %s\n", pct(s.IncrementalROIC))
	fmt.Fprintf(&b, "Revenue CAGR (3yr): %s\n", pct(s.RevenueCAGR3yr))
	fmt.Fprintf(&b, "Revenue CAGR (5yr): %s\n", pct(s.RevenueCAGR5yr))
	fmt.Fprintf(&b, "Gross margin trend: %s\n", orNA(string(s.GrossMarginTrend)))
	fmt.Fprintf(&b, "Share count CAGR (3yr): %s\n", pct(s.ShareCountCAGR3yr))
	fmt.Fprintf(&b, "FCF / net income (TTM): %s\n", num(s.FcfNiRatioTTM))
	if s.NetInsiderBuyTx6M != nil {
		fmt.Fprintf(&b, "Net insider buy transactions (6mo): %d\n", *s.NetInsiderBuyTx6M)
	} else {
		b.WriteString("Net insider buy transactions (6mo): n/a\n")
	}
	fmt.Fprintf(&b, "Insider ownership: %s%%\n", num(s.InsiderOwnershipPct))
	fmt.Fprintf(&b, "Composite score: %d\n", s.SimpleScore)
	if s.HasCatalyst {
		b.WriteString("Recent catalyst headline: yes\n")
	}
	if s.IsRegSho {
		b.WriteString("On the Reg-SHO threshold list: yes\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

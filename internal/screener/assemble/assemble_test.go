package assemble

import (
	"math"
	"testing"
	"time"

	"github.com/seenimoa/deepscreen/internal/datasource"
	"github.com/seenimoa/deepscreen/internal/screener/score"
	"github.com/seenimoa/deepscreen/pkg/models"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type stubCatalysts map[string]bool

func (s stubCatalysts) HasCatalyst(symbol, _ string) bool { return s[symbol] }

func newTestBuilder(regSHO datasource.RegSHOSet, catalysts CatalystSource, baseline score.BaselineSource) *Builder {
	b := New(regSHO, catalysts, baseline)
	b.now = func() time.Time { return testNow }
	return b
}

func f(v float64) *float64 { return &v }

// fullSymbolData is a company with six years of statements and recent
// insider buying, rich enough to exercise every derivation.
func fullSymbolData() *datasource.SymbolData {
	incomeRow := func(year string, rev, gpr, opInc, pretax, tax, ni, shares float64) datasource.IncomeStatement {
		return datasource.IncomeStatement{
			CalendarYear:             year,
			Revenue:                  f(rev),
			GrossProfitRatio:         f(gpr),
			OperatingIncome:          f(opInc),
			IncomeBeforeTax:          f(pretax),
			IncomeTaxExpense:         f(tax),
			NetIncome:                f(ni),
			WeightedAverageShsOutDil: f(shares),
		}
	}
	balanceRow := func(year string, tca, tl, debt, equity, cash float64) datasource.BalanceSheet {
		return datasource.BalanceSheet{
			CalendarYear:            year,
			TotalCurrentAssets:      f(tca),
			TotalLiabilities:        f(tl),
			TotalDebt:               f(debt),
			TotalStockholdersEquity: f(equity),
			Goodwill:                f(1e6),
			IntangibleAssets:        f(1e6),
			CashAndCashEquivalents:  f(cash),
		}
	}

	return &datasource.SymbolData{
		Screener: datasource.ScreenerItem{
			Symbol:      "ACME",
			CompanyName: "Acme Holdings",
			Sector:      "Industrials",
			MarketCap:   f(8e6),
			Price:       f(10),
		},
		Quote: &datasource.Quote{
			Price:             f(10),
			ChangesPercentage: f(1.5),
			AvgVolume:         f(50_000),
			SharesOutstanding: f(1e6),
			YearHigh:          f(12),
			YearLow:           f(5),
		},
		Ratios: &datasource.RatiosTTM{
			PriceEarningsRatioTTM:     f(10),
			DebtEquityRatioTTM:        f(0.3),
			ReturnOnTangibleEquityTTM: f(0.18),
			NetIncomePerShareTTM:      f(1.0),
			InterestCoverageTTM:       f(12),
		},
		KeyMetrics: &datasource.KeyMetricsTTM{
			DebtToEbitdaTTM:              f(0.4),
			EnterpriseValueOverEBITDATTM: f(5),
			FreeCashFlowPerShareTTM:      f(1.2),
		},
		Income: []datasource.IncomeStatement{
			incomeRow("2025", 300e6, 0.45, 60e6, 55e6, 11e6, 44e6, 1.0e6),
			incomeRow("2024", 250e6, 0.43, 50e6, 45e6, 9e6, 36e6, 1.05e6),
			incomeRow("2023", 200e6, 0.40, 40e6, 36e6, 7.2e6, 28.8e6, 1.1e6),
			incomeRow("2022", 150e6, 0.38, 30e6, 27e6, 5.4e6, 21e6, 1.15e6),
			incomeRow("2021", 120e6, 0.36, 24e6, 21e6, 4.2e6, 16e6, 1.2e6),
			incomeRow("2020", 100e6, 0.35, 20e6, 18e6, 3.6e6, 13e6, 1.25e6),
		},
		Balance: []datasource.BalanceSheet{
			balanceRow("2025", 25e6, 5e6, 1e6, 22e6, 5e6),
			balanceRow("2024", 20e6, 5e6, 1e6, 18e6, 4e6),
			balanceRow("2023", 18e6, 5e6, 1e6, 15e6, 3e6),
			balanceRow("2022", 16e6, 5e6, 1e6, 12e6, 3e6),
			balanceRow("2021", 14e6, 5e6, 1e6, 10e6, 2e6),
			balanceRow("2020", 12e6, 5e6, 1e6, 8e6, 2e6),
		},
		Trades: []datasource.InsiderTransaction{
			{TransactionDate: "2026-06-01", TransactionType: datasource.TransactionPurchase, SecuritiesTransacted: f(1000), Price: f(10)},
			{TransactionDate: "2026-05-10", TransactionType: datasource.TransactionPurchase, SecuritiesTransacted: f(500), Price: f(8)},
			{TransactionDate: "2026-04-01", TransactionType: datasource.TransactionSale, SecuritiesTransacted: f(200), Price: f(9)},
			// Outside the six month window.
			{TransactionDate: "2025-01-01", TransactionType: datasource.TransactionPurchase, SecuritiesTransacted: f(9999), Price: f(10)},
		},
		Ownership: []datasource.InsiderOwnership{
			{FilingDate: "2026-03-31", OwnershipPercentage: f(22.0)},
			{FilingDate: "2025-12-31", OwnershipPercentage: f(19.0)},
		},
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuildFullRecord(t *testing.T) {
	b := newTestBuilder(nil, stubCatalysts{"ACME": true}, score.FixedBaseline(70))
	stock := b.Build(fullSymbolData())

	if stock.Symbol != "ACME" || stock.Name != "Acme Holdings" || stock.Sector != "Industrials" {
		t.Fatalf("identity fields wrong: %+v", stock)
	}
	if stock.Price != 10 {
		t.Errorf("price = %v, want 10", stock.Price)
	}
	if stock.MarketCap == nil || *stock.MarketCap != 8e6 {
		t.Errorf("marketCap = %v, want 8e6", stock.MarketCap)
	}
	if stock.SharesOutstanding == nil || *stock.SharesOutstanding != 1e6 {
		t.Errorf("sharesOutstanding = %v, want 1e6", stock.SharesOutstanding)
	}
	if stock.ReturnOnEquityTTM == nil || *stock.ReturnOnEquityTTM != 0.18 {
		t.Errorf("roe = %v, want tangible 0.18", stock.ReturnOnEquityTTM)
	}

	// Derived metrics.
	if stock.FcfNiRatioTTM == nil || !almostEqual(*stock.FcfNiRatioTTM, 1.2) {
		t.Errorf("fcf/ni = %v, want 1.2", stock.FcfNiRatioTTM)
	}
	if stock.OwnerEarningsYield == nil || !almostEqual(*stock.OwnerEarningsYield, 0.12) {
		t.Errorf("owner earnings yield = %v, want 0.12", stock.OwnerEarningsYield)
	}
	// NCAV = 25M current assets - 5M total liabilities = 20M, so 20/share.
	if stock.PncaRatio == nil || !almostEqual(*stock.PncaRatio, 0.5) {
		t.Errorf("p/ncav = %v, want 0.5", stock.PncaRatio)
	}
	if stock.PncaUnfavorable {
		t.Error("p/ncav should not be unfavorable")
	}
	// (5M cash - 1M debt) / 8M cap.
	if stock.NetCashToMarketCap == nil || !almostEqual(*stock.NetCashToMarketCap, 0.5) {
		t.Errorf("net cash ratio = %v, want 0.5", stock.NetCashToMarketCap)
	}
	if stock.DaysToExitPosition == nil || !almostEqual(*stock.DaysToExitPosition, 10) {
		t.Errorf("days to exit = %v, want 10", stock.DaysToExitPosition)
	}
	wantRev3 := math.Pow(300.0/200.0, 0.5) - 1
	if stock.RevenueCAGR3yr == nil || !almostEqual(*stock.RevenueCAGR3yr, wantRev3) {
		t.Errorf("rev cagr 3y = %v, want %v", stock.RevenueCAGR3yr, wantRev3)
	}
	wantRev5 := math.Pow(3.0, 0.2) - 1
	if stock.RevenueCAGR5yr == nil || !almostEqual(*stock.RevenueCAGR5yr, wantRev5) {
		t.Errorf("rev cagr 5y = %v, want %v", stock.RevenueCAGR5yr, wantRev5)
	}
	// NOPAT delta 8M over invested capital delta 3M.
	if stock.IncrementalROIC == nil || !almostEqual(*stock.IncrementalROIC, 8.0/3.0) {
		t.Errorf("incremental roic = %v, want 8/3", stock.IncrementalROIC)
	}
	if stock.GrossMarginTrend != models.TrendImproving {
		t.Errorf("gross margin trend = %q, want improving", stock.GrossMarginTrend)
	}
	if stock.AvgRotce5yr == nil || *stock.AvgRotce5yr <= 0 {
		t.Errorf("avg rotce = %v, want positive", stock.AvgRotce5yr)
	}

	// Insider activity inside the window: two buys, one sale.
	if stock.NetInsiderBuyTx6M == nil || *stock.NetInsiderBuyTx6M != 1 {
		t.Errorf("net insider tx = %v, want 1", stock.NetInsiderBuyTx6M)
	}
	// 1000*10 + 500*8 = 14000 over 8M cap.
	if stock.InsiderBuyValueToMarketCap == nil || !almostEqual(*stock.InsiderBuyValueToMarketCap, 14000.0/8e6) {
		t.Errorf("insider buy ratio = %v, want 0.00175", stock.InsiderBuyValueToMarketCap)
	}
	if stock.InsiderOwnershipPct == nil || *stock.InsiderOwnershipPct != 22.0 {
		t.Errorf("insider ownership = %v, want 22", stock.InsiderOwnershipPct)
	}

	// Yield 30 + net cash 15 + insider 5 + revenue growth 20 + catalyst 5.
	if stock.SimpleScore != 75 {
		t.Errorf("score = %d, want 75", stock.SimpleScore)
	}
	if stock.Score63DaysAgo != 70 {
		t.Errorf("baseline = %d, want 70", stock.Score63DaysAgo)
	}
	if stock.RankMomentum63 == nil || *stock.RankMomentum63 != 5 {
		t.Errorf("rank momentum = %v, want 5", stock.RankMomentum63)
	}
	if !stock.HasCatalyst {
		t.Error("expected catalyst flag")
	}
	if stock.IsRegSho {
		t.Error("unexpected Reg-SHO flag")
	}

	// Categorical buckets.
	if stock.MarketCapCategory != models.MarketCapNano {
		t.Errorf("cap category = %q, want nano", stock.MarketCapCategory)
	}
	if stock.VolumeCategory != models.VolumeLow {
		t.Errorf("volume category = %q, want low", stock.VolumeCategory)
	}
	if stock.DebtCategory != models.DebtLow {
		t.Errorf("debt category = %q, want low", stock.DebtCategory)
	}
	if stock.ValuationCategory != models.ValuationValue {
		t.Errorf("valuation category = %q, want value", stock.ValuationCategory)
	}
	if stock.RotceCategory != models.ROEGood {
		t.Errorf("roe category = %q, want good", stock.RotceCategory)
	}
	if stock.DeepValueCategory != models.DeepValueLe05 {
		t.Errorf("deep value category = %q, want le0.5", stock.DeepValueCategory)
	}
	if stock.ShareCountCagrCategory != models.ShareCountReductionSmall {
		t.Errorf("share count category = %q, want small reduction", stock.ShareCountCagrCategory)
	}
	if stock.InsiderOwnershipCategory != models.InsiderOwnGe20 {
		t.Errorf("ownership category = %q, want ge20", stock.InsiderOwnershipCategory)
	}
	if stock.NetInsiderBuysCategory != models.InsiderNetBuying {
		t.Errorf("insider activity = %q, want net_buying", stock.NetInsiderBuysCategory)
	}
	if stock.IncrementalRoicCategory != models.IncRoicGe25 {
		t.Errorf("roic category = %q, want ge25pct", stock.IncrementalRoicCategory)
	}
	if stock.FetchedAt != testNow {
		t.Errorf("fetchedAt = %v, want %v", stock.FetchedAt, testNow)
	}
}

func TestBuildSparseRecord(t *testing.T) {
	b := newTestBuilder(nil, nil, score.FixedBaseline(0))
	stock := b.Build(&datasource.SymbolData{
		Screener: datasource.ScreenerItem{Symbol: "GHST", CompanyName: "Ghost Co"},
	})

	if stock.Price != 0 {
		t.Errorf("price = %v, want 0", stock.Price)
	}
	if stock.MarketCap != nil || stock.SharesOutstanding != nil || stock.AvgVolume != nil {
		t.Error("expected nil market data")
	}
	if stock.PERatioTTM != nil || stock.FCFPerShareTTM != nil || stock.ReturnOnEquityTTM != nil {
		t.Error("expected nil ratios")
	}
	if stock.PncaRatio != nil || stock.PncaUnfavorable {
		t.Error("expected undefined p/ncav")
	}
	if stock.NetInsiderBuyTx6M != nil {
		t.Error("failed insider fetch must leave the count nil, not zero")
	}
	if stock.InsiderBuyValueToMarketCap != nil {
		t.Error("failed insider fetch must leave the buy ratio nil")
	}
	if stock.SimpleScore != 0 {
		t.Errorf("score = %d, want 0", stock.SimpleScore)
	}
	if stock.RankMomentum63 == nil || *stock.RankMomentum63 != 0 {
		t.Errorf("rank momentum = %v, want 0", stock.RankMomentum63)
	}

	// Every bucket must stay at its unavailable zero value so no filter
	// selection can match it.
	if stock.MarketCapCategory != "" || stock.VolumeCategory != "" || stock.DebtCategory != "" ||
		stock.ValuationCategory != "" || stock.RotceCategory != "" || stock.DeepValueCategory != "" ||
		stock.ShareCountCagrCategory != "" || stock.InsiderOwnershipCategory != "" ||
		stock.NetInsiderBuysCategory != "" || stock.IncrementalRoicCategory != "" {
		t.Errorf("expected all empty buckets: %+v", stock)
	}
}

func TestBuildEmptyTradesIsZeroNotNil(t *testing.T) {
	b := newTestBuilder(nil, nil, score.FixedBaseline(0))
	stock := b.Build(&datasource.SymbolData{
		Screener: datasource.ScreenerItem{Symbol: "QUIE", MarketCap: f(5e7)},
		Trades:   []datasource.InsiderTransaction{},
	})
	if stock.NetInsiderBuyTx6M == nil || *stock.NetInsiderBuyTx6M != 0 {
		t.Fatalf("net insider tx = %v, want 0 for an empty but successful fetch", stock.NetInsiderBuyTx6M)
	}
	if stock.NetInsiderBuysCategory != models.InsiderNeutral {
		t.Errorf("insider activity = %q, want neutral", stock.NetInsiderBuysCategory)
	}
	if stock.InsiderBuyValueToMarketCap == nil || *stock.InsiderBuyValueToMarketCap != 0 {
		t.Errorf("insider buy ratio = %v, want 0", stock.InsiderBuyValueToMarketCap)
	}
}

func TestBuildSharesOutstandingFallback(t *testing.T) {
	data := &datasource.SymbolData{
		Screener: datasource.ScreenerItem{Symbol: "FBCK"},
		Income: []datasource.IncomeStatement{
			{CalendarYear: "2025", WeightedAverageShsOutDil: f(2e6)},
		},
		Balance: []datasource.BalanceSheet{
			{CalendarYear: "2025", CommonStock: f(3e6)},
		},
	}

	b := newTestBuilder(nil, nil, score.FixedBaseline(0))

	// No quote; diluted weighted average wins.
	stock := b.Build(data)
	if stock.SharesOutstanding == nil || *stock.SharesOutstanding != 2e6 {
		t.Fatalf("shares = %v, want income fallback 2e6", stock.SharesOutstanding)
	}

	// Non-positive counts are skipped, falling through to common stock.
	data.Income[0].WeightedAverageShsOutDil = f(0)
	stock = b.Build(data)
	if stock.SharesOutstanding == nil || *stock.SharesOutstanding != 3e6 {
		t.Fatalf("shares = %v, want balance fallback 3e6", stock.SharesOutstanding)
	}

	// A quote with a usable count takes precedence.
	data.Quote = &datasource.Quote{SharesOutstanding: f(1e6)}
	stock = b.Build(data)
	if stock.SharesOutstanding == nil || *stock.SharesOutstanding != 1e6 {
		t.Fatalf("shares = %v, want quote 1e6", stock.SharesOutstanding)
	}
}

func TestBuildRegSHOFlag(t *testing.T) {
	set := datasource.RegSHOSet{"SHRT": {}}
	b := newTestBuilder(set, nil, score.FixedBaseline(0))

	stock := b.Build(&datasource.SymbolData{Screener: datasource.ScreenerItem{Symbol: "SHRT"}})
	if !stock.IsRegSho {
		t.Error("expected Reg-SHO flag for listed symbol")
	}
	stock = b.Build(&datasource.SymbolData{Screener: datasource.ScreenerItem{Symbol: "SAFE"}})
	if stock.IsRegSho {
		t.Error("unexpected Reg-SHO flag")
	}
}

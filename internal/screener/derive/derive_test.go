package derive

import (
	"math"
	"testing"
	"time"

	"github.com/seenimoa/deepscreen/pkg/models"
)

func fp(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCAGR(t *testing.T) {
	t.Run("doubles over two periods", func(t *testing.T) {
		got := CAGR([]*float64{fp(100), fp(150), fp(200)})
		if got == nil {
			t.Fatal("expected a value")
		}
		want := math.Sqrt(2) - 1
		if !almostEqual(*got, want) {
			t.Errorf("got %v, want %v", *got, want)
		}
	})

	t.Run("roundtrips back to last over first", func(t *testing.T) {
		series := []*float64{fp(120), fp(95), fp(140), fp(180)}
		got := CAGR(series)
		if got == nil {
			t.Fatal("expected a value")
		}
		if ratio := math.Pow(1+*got, 3); !almostEqual(ratio, 180.0/120.0) {
			t.Errorf("(1+cagr)^periods = %v, want %v", ratio, 180.0/120.0)
		}
	})

	t.Run("skips nil points", func(t *testing.T) {
		got := CAGR([]*float64{fp(100), nil, fp(121)})
		if got == nil {
			t.Fatal("expected a value")
		}
		// One gap remains after the nil point is dropped.
		if !almostEqual(*got, 0.21) {
			t.Errorf("got %v, want 0.21", *got)
		}
	})

	t.Run("fewer than two usable points", func(t *testing.T) {
		if got := CAGR([]*float64{fp(100), nil}); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
		if got := CAGR(nil); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})

	t.Run("zero start", func(t *testing.T) {
		if got := CAGR([]*float64{fp(0), fp(50)}); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})

	t.Run("sign flip needing a non-real root", func(t *testing.T) {
		if got := CAGR([]*float64{fp(-10), fp(5), fp(20)}); got != nil {
			t.Errorf("negative to positive: got %v, want nil", *got)
		}
		if got := CAGR([]*float64{fp(10), fp(5), fp(-20)}); got != nil {
			t.Errorf("positive to negative over even root: got %v, want nil", *got)
		}
	})
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []*float64
		want   models.Trend
	}{
		{"steady rise", []*float64{fp(0.30), fp(0.33), fp(0.36)}, models.TrendImproving},
		{"steady fall", []*float64{fp(0.36), fp(0.33), fp(0.30)}, models.TrendDeclining},
		{"flat", []*float64{fp(0.30), fp(0.301), fp(0.302)}, models.TrendStable},
		{"noisy but up overall", []*float64{fp(0.30), fp(0.25), fp(0.40)}, models.TrendImproving},
		{"noisy but down overall", []*float64{fp(0.40), fp(0.45), fp(0.30)}, models.TrendDeclining},
		{"single usable point", []*float64{fp(0.30), nil}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		if got := Trend(tt.series); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIncrementalROIC(t *testing.T) {
	income := []IncomeYear{
		{Year: 2023, OperatingIncome: fp(100), IncomeTaxExpense: fp(20), IncomeBeforeTax: fp(100)},
		{Year: 2024, OperatingIncome: fp(150), IncomeTaxExpense: fp(30), IncomeBeforeTax: fp(150)},
	}
	balance := []BalanceYear{
		{Year: 2023, TotalDebt: fp(200), TotalEquity: fp(400), Cash: fp(100)},
		{Year: 2024, TotalDebt: fp(220), TotalEquity: fp(480), Cash: fp(100)},
	}

	got := IncrementalROIC(income, balance)
	if got == nil {
		t.Fatal("expected a value")
	}
	// NOPAT moves from 80 to 120, invested capital from 500 to 600.
	if !almostEqual(*got, 0.40) {
		t.Errorf("got %v, want 0.40", *got)
	}

	t.Run("shrinking invested capital", func(t *testing.T) {
		shrunk := []BalanceYear{
			{Year: 2023, TotalDebt: fp(200), TotalEquity: fp(400), Cash: fp(100)},
			{Year: 2024, TotalDebt: fp(100), TotalEquity: fp(400), Cash: fp(100)},
		}
		if got := IncrementalROIC(income, shrunk); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})

	t.Run("undefined tax rate", func(t *testing.T) {
		zeroPretax := []IncomeYear{
			{Year: 2023, OperatingIncome: fp(100), IncomeTaxExpense: fp(20), IncomeBeforeTax: fp(0)},
			{Year: 2024, OperatingIncome: fp(150), IncomeTaxExpense: fp(30), IncomeBeforeTax: fp(150)},
		}
		if got := IncrementalROIC(zeroPretax, balance); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})

	t.Run("missing matching balance year", func(t *testing.T) {
		if got := IncrementalROIC(income, balance[:1]); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})
}

func TestPriceToNCAV(t *testing.T) {
	balance := []BalanceYear{
		{Year: 2024, TotalCurrentAssets: fp(1000), TotalLiabilities: fp(400)},
	}

	ratio, unfavorable := PriceToNCAV(3, fp(100), balance)
	if unfavorable {
		t.Fatal("unexpected unfavorable flag")
	}
	if ratio == nil || !almostEqual(*ratio, 0.5) {
		t.Fatalf("got %v, want 0.5", ratio)
	}

	t.Run("negative NCAV is unfavorable, not a ratio", func(t *testing.T) {
		upsideDown := []BalanceYear{
			{Year: 2024, TotalCurrentAssets: fp(400), TotalLiabilities: fp(1000)},
		}
		ratio, unfavorable := PriceToNCAV(3, fp(100), upsideDown)
		if ratio != nil {
			t.Errorf("ratio = %v, want nil", *ratio)
		}
		if !unfavorable {
			t.Error("expected unfavorable flag")
		}
	})

	t.Run("no price or shares", func(t *testing.T) {
		if ratio, unf := PriceToNCAV(0, fp(100), balance); ratio != nil || unf {
			t.Error("expected nil, false for zero price")
		}
		if ratio, unf := PriceToNCAV(3, nil, balance); ratio != nil || unf {
			t.Error("expected nil, false for missing shares")
		}
	})
}

func TestShareCountAndRevenueWindows(t *testing.T) {
	income := []IncomeYear{
		{Year: 2019, Revenue: fp(100), WeightedAvgShares: fp(1000)},
		{Year: 2020, Revenue: fp(110), WeightedAvgShares: fp(990)},
		{Year: 2021, Revenue: fp(121), WeightedAvgShares: fp(980)},
		{Year: 2022, Revenue: fp(133), WeightedAvgShares: fp(970)},
		{Year: 2023, Revenue: fp(146), WeightedAvgShares: fp(960)},
		{Year: 2024, Revenue: fp(161), WeightedAvgShares: fp(950)},
	}

	if got := ShareCountCAGR(income); got == nil || *got >= 0 {
		t.Errorf("buyback history should derive a negative rate, got %v", got)
	}
	if got := RevenueCAGR3yr(income); got == nil || *got <= 0.09 || *got >= 0.12 {
		t.Errorf("three-year revenue growth out of range: %v", got)
	}
	if got := RevenueCAGR5yr(income); got == nil {
		t.Error("expected a five-year growth value")
	}
	if got := RevenueCAGR5yr(income[:5]); got != nil {
		t.Errorf("five-year growth needs six statements, got %v", *got)
	}
	if got := ShareCountCAGR(income[:2]); got != nil {
		t.Errorf("trend window too short, got %v", *got)
	}
}

func TestInsiderActivity(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	since := now.AddDate(0, -6, 0)
	trades := []InsiderTrade{
		{Date: now.AddDate(0, -1, 0), Kind: TradePurchase, Shares: fp(1000), Price: fp(10)},
		{Date: now.AddDate(0, -2, 0), Kind: TradePurchase, Shares: fp(500), Price: fp(12)},
		{Date: now.AddDate(0, -3, 0), Kind: TradeSale, Shares: fp(2000), Price: fp(11)},
		{Date: now.AddDate(0, -8, 0), Kind: TradePurchase, Shares: fp(9999), Price: fp(10)}, // stale
		{Date: now.AddDate(0, -1, 0), Kind: TradeOther, Shares: fp(100), Price: fp(10)},
	}

	net, buyValue := InsiderActivity(trades, since)
	if net != 1 {
		t.Errorf("net = %d, want 1", net)
	}
	if !almostEqual(buyValue, 16000) {
		t.Errorf("buyValue = %v, want 16000", buyValue)
	}

	t.Run("normalized by market cap", func(t *testing.T) {
		got := InsiderBuyValueToMarketCap(buyValue, fp(1_600_000))
		if got == nil || !almostEqual(*got, 0.01) {
			t.Errorf("got %v, want 0.01", got)
		}
		if got := InsiderBuyValueToMarketCap(0, nil); got == nil || *got != 0 {
			t.Errorf("no buys should normalize to zero, got %v", got)
		}
		if got := InsiderBuyValueToMarketCap(buyValue, nil); got != nil {
			t.Errorf("buys with no market cap: got %v, want nil", *got)
		}
	})
}

func TestAvgTangibleROE(t *testing.T) {
	income := make([]IncomeYear, 0, 5)
	balance := make([]BalanceYear, 0, 5)
	for year := 2020; year <= 2024; year++ {
		income = append(income, IncomeYear{Year: year, NetIncome: fp(50)})
		balance = append(balance, BalanceYear{
			Year: year, TotalEquity: fp(300), Goodwill: fp(40), IntangibleAssets: fp(10),
		})
	}

	got := AvgTangibleROE(income, balance)
	if got == nil || !almostEqual(*got, 0.2) {
		t.Fatalf("got %v, want 0.2", got)
	}

	t.Run("skips negative tangible equity years", func(t *testing.T) {
		balance[2].Goodwill = fp(400)
		got := AvgTangibleROE(income, balance)
		if got == nil || !almostEqual(*got, 0.2) {
			t.Errorf("got %v, want 0.2 over remaining years", got)
		}
		balance[2].Goodwill = fp(40)
	})

	t.Run("needs five years", func(t *testing.T) {
		if got := AvgTangibleROE(income[:4], balance); got != nil {
			t.Errorf("got %v, want nil", *got)
		}
	})
}

func TestPointInTimeRatios(t *testing.T) {
	if got := DaysToExit(fp(10_000_000), fp(250_000)); got == nil || !almostEqual(*got, 20) {
		t.Errorf("DaysToExit: got %v, want 20", got)
	}
	if got := DaysToExit(fp(10_000_000), fp(0)); got != nil {
		t.Errorf("DaysToExit with zero volume: got %v, want nil", *got)
	}

	balance := []BalanceYear{{Year: 2024, Cash: fp(500), TotalDebt: fp(200)}}
	if got := NetCashToMarketCap(balance, fp(1000)); got == nil || !almostEqual(*got, 0.3) {
		t.Errorf("NetCashToMarketCap: got %v, want 0.3", got)
	}
	if got := NetCashToMarketCap(balance, fp(0)); got != nil {
		t.Errorf("NetCashToMarketCap with zero cap: got %v, want nil", *got)
	}

	if got := OwnerEarningsYield(fp(5), 100); got == nil || !almostEqual(*got, 0.05) {
		t.Errorf("OwnerEarningsYield: got %v, want 0.05", got)
	}
	if got := OwnerEarningsYield(fp(0), 100); got != nil {
		t.Errorf("zero FCF is unreported: got %v, want nil", *got)
	}
	if got := OwnerEarningsYield(fp(5), 0); got != nil {
		t.Errorf("zero price: got %v, want nil", *got)
	}

	if got := FcfNiRatio(fp(8), fp(10)); got == nil || !almostEqual(*got, 0.8) {
		t.Errorf("FcfNiRatio: got %v, want 0.8", got)
	}
	if got := FcfNiRatio(fp(8), fp(0)); got != nil {
		t.Errorf("FcfNiRatio with zero NI: got %v, want nil", *got)
	}
}

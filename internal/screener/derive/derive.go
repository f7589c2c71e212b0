// Package derive computes secondary financial metrics from raw statement
// series and point-in-time figures. Every function is pure and total:
// missing or non-finite inputs propagate to a nil result, never to NaN,
// Inf, or a default value.
package derive

import (
	"math"
	"sort"
	"time"

	"github.com/seenimoa/deepscreen/pkg/models"
)

// Years of history consumed by trend and average computations.
const (
	trendYears  = 3
	avgYears    = 5
	cagr5yYears = 6
)

// IncomeYear is one annual income statement, reduced to the line items the
// derivations consume. Nil fields mean the source did not report the item.
type IncomeYear struct {
	Year              int
	Revenue           *float64
	GrossProfitRatio  *float64
	OperatingIncome   *float64
	IncomeBeforeTax   *float64
	IncomeTaxExpense  *float64
	NetIncome         *float64
	WeightedAvgShares *float64
}

// BalanceYear is one annual balance sheet, reduced the same way.
type BalanceYear struct {
	Year               int
	TotalCurrentAssets *float64
	TotalLiabilities   *float64
	TotalDebt          *float64
	TotalEquity        *float64
	Goodwill           *float64
	IntangibleAssets   *float64
	Cash               *float64
}

// TradeKind classifies an insider transaction.
type TradeKind int

const (
	TradeOther TradeKind = iota
	TradePurchase
	TradeSale
)

// InsiderTrade is one reported insider transaction.
type InsiderTrade struct {
	Date   time.Time
	Kind   TradeKind
	Shares *float64
	Price  *float64
}

// CAGR returns the compound annual growth rate across the usable points of a
// time-ordered series (oldest first). Nil and non-finite entries are dropped
// before the endpoints are taken; the period count is the number of gaps
// between the remaining points. Returns nil when fewer than two usable points
// remain, when the first value is zero, or when the endpoint signs would
// require a non-real root.
func CAGR(values []*float64) *float64 {
	usable := finiteValues(values)
	if len(usable) < 2 {
		return nil
	}
	first, last := usable[0], usable[len(usable)-1]
	periods := len(usable) - 1
	if first == 0 {
		return nil
	}
	if first < 0 && last > 0 {
		return nil
	}
	if first > 0 && last <= 0 && periods%2 == 0 && periods > 1 {
		return nil
	}
	cagr := math.Pow(last/first, 1/float64(periods)) - 1
	if !isFinite(cagr) {
		return nil
	}
	return &cagr
}

// Trend classifies the direction of a time-ordered series. A series that
// never steps down by more than 2% and ends more than 5% above its start is
// improving; the mirror case is declining. When the pointwise test is
// inconclusive the first-versus-last 5% comparison decides; anything left is
// stable. Returns the zero Trend when fewer than two usable points remain.
func Trend(values []*float64) models.Trend {
	usable := finiteValues(values)
	if len(usable) < 2 {
		return ""
	}
	first, last := usable[0], usable[len(usable)-1]

	rising, falling := true, true
	for i := 1; i < len(usable); i++ {
		if usable[i] < usable[i-1]*0.98 {
			rising = false
		}
		if usable[i] > usable[i-1]*1.02 {
			falling = false
		}
	}

	switch {
	case rising && last > first*1.05:
		return models.TrendImproving
	case falling && last < first*0.95:
		return models.TrendDeclining
	case last > first*1.05:
		return models.TrendImproving
	case last < first*0.95:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// IncrementalROIC returns the change in after-tax operating profit between
// the two most recent fiscal years divided by the change in invested capital
// over the same years. NOPAT uses the effective tax rate from each year's own
// statement; invested capital is total debt plus equity minus cash. Nil when
// any input is missing, the tax rate is undefined, or invested capital did
// not grow.
func IncrementalROIC(income []IncomeYear, balance []BalanceYear) *float64 {
	if len(income) < 2 || len(balance) < 2 {
		return nil
	}
	is := sortedIncome(income)
	curr, prev := is[len(is)-1], is[len(is)-2]
	currBS := balanceForYear(balance, curr.Year)
	prevBS := balanceForYear(balance, prev.Year)
	if currBS == nil || prevBS == nil {
		return nil
	}

	nopatCurr := nopat(curr)
	nopatPrev := nopat(prev)
	capCurr := investedCapital(*currBS)
	capPrev := investedCapital(*prevBS)
	if nopatCurr == nil || nopatPrev == nil || capCurr == nil || capPrev == nil {
		return nil
	}
	deltaCap := *capCurr - *capPrev
	if deltaCap <= 0 {
		return nil
	}
	roic := (*nopatCurr - *nopatPrev) / deltaCap
	return &roic
}

// PriceToNCAV returns the ratio of price to net current asset value per
// share, from the most recent balance sheet. When net current assets per
// share are non-positive while the price is positive, the ratio is nil with
// unfavorable=true: the stock trades above any conceivable NCAV and must not
// match a "below x" test.
func PriceToNCAV(price float64, sharesOutstanding *float64, balance []BalanceYear) (ratio *float64, unfavorable bool) {
	if len(balance) == 0 || price <= 0 {
		return nil, false
	}
	shares, ok := finite(sharesOutstanding)
	if !ok || shares <= 0 {
		return nil, false
	}
	latest := sortedBalance(balance)[len(balance)-1]
	assets, okA := finite(latest.TotalCurrentAssets)
	liabilities, okL := finite(latest.TotalLiabilities)
	if !okA || !okL {
		return nil, false
	}
	ncavPerShare := (assets - liabilities) / shares
	if ncavPerShare <= 0 {
		return nil, true
	}
	r := price / ncavPerShare
	return &r, false
}

// ShareCountCAGR returns the growth rate of diluted weighted average shares
// over the most recent trend window.
func ShareCountCAGR(income []IncomeYear) *float64 {
	if len(income) < trendYears {
		return nil
	}
	is := lastN(sortedIncome(income), trendYears)
	series := make([]*float64, len(is))
	for i, y := range is {
		series[i] = y.WeightedAvgShares
	}
	return CAGR(series)
}

// GrossMarginTrend classifies the direction of gross margin over the most
// recent trend window.
func GrossMarginTrend(income []IncomeYear) models.Trend {
	if len(income) < 2 {
		return ""
	}
	is := lastN(sortedIncome(income), trendYears)
	series := make([]*float64, len(is))
	for i, y := range is {
		series[i] = y.GrossProfitRatio
	}
	return Trend(series)
}

// RevenueCAGR3yr returns revenue growth over the most recent trend window.
func RevenueCAGR3yr(income []IncomeYear) *float64 {
	if len(income) < trendYears {
		return nil
	}
	is := lastN(sortedIncome(income), trendYears)
	series := make([]*float64, len(is))
	for i, y := range is {
		series[i] = y.Revenue
	}
	return CAGR(series)
}

// RevenueCAGR5yr returns revenue growth over the five most recent year
// gaps, requiring six annual statements.
func RevenueCAGR5yr(income []IncomeYear) *float64 {
	if len(income) < cagr5yYears {
		return nil
	}
	is := lastN(sortedIncome(income), cagr5yYears)
	series := make([]*float64, len(is))
	for i, y := range is {
		series[i] = y.Revenue
	}
	return CAGR(series)
}

// InsiderActivity sums insider purchases and sales dated on or after since.
// It returns the net transaction count (purchases minus sales) and the total
// dollar value of the purchases. Trades with missing share or price figures
// still count toward the net figure but contribute zero value.
func InsiderActivity(trades []InsiderTrade, since time.Time) (net int, buyValue float64) {
	for _, tr := range trades {
		if tr.Date.Before(since) {
			continue
		}
		switch tr.Kind {
		case TradePurchase:
			net++
			shares, _ := finite(tr.Shares)
			price, _ := finite(tr.Price)
			buyValue += shares * price
		case TradeSale:
			net--
		}
	}
	return net, buyValue
}

// InsiderBuyValueToMarketCap normalizes the trailing insider buy value by
// market capitalization. Zero buys yield zero, not nil; nil only when there
// were buys but no usable market cap to normalize by.
func InsiderBuyValueToMarketCap(buyValue float64, marketCap *float64) *float64 {
	if buyValue <= 0 {
		zero := 0.0
		return &zero
	}
	mc, ok := finite(marketCap)
	if !ok || mc <= 0 {
		return nil
	}
	r := buyValue / mc
	return &r
}

// AvgTangibleROE averages net income over tangible common equity across the
// most recent five fiscal years, skipping years where tangible equity is not
// positive. Nil when fewer than five years of statements exist on either
// side or no year qualifies.
func AvgTangibleROE(income []IncomeYear, balance []BalanceYear) *float64 {
	if len(income) < avgYears || len(balance) < avgYears {
		return nil
	}
	var sum float64
	var n int
	for _, is := range lastN(sortedIncome(income), avgYears) {
		bs := balanceForYear(balance, is.Year)
		if bs == nil {
			continue
		}
		netInc, okN := finite(is.NetIncome)
		equity, okE := finite(bs.TotalEquity)
		if !okN || !okE {
			continue
		}
		goodwill, _ := finite(bs.Goodwill)
		intangibles, _ := finite(bs.IntangibleAssets)
		tangible := equity - goodwill - intangibles
		if tangible <= 0 {
			continue
		}
		sum += netInc / tangible
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// DaysToExit estimates how many trading days it would take to unwind a 5%
// position trading 10% of average daily volume.
func DaysToExit(sharesOutstanding, avgVolume *float64) *float64 {
	shares, okS := finite(sharesOutstanding)
	volume, okV := finite(avgVolume)
	if !okS || !okV || shares <= 0 || volume <= 0 {
		return nil
	}
	days := (0.05 * shares) / (0.10 * volume)
	return &days
}

// NetCashToMarketCap returns (cash - total debt) / market cap from the most
// recent balance sheet.
func NetCashToMarketCap(balance []BalanceYear, marketCap *float64) *float64 {
	if len(balance) == 0 {
		return nil
	}
	mc, ok := finite(marketCap)
	if !ok || mc <= 0 {
		return nil
	}
	latest := sortedBalance(balance)[len(balance)-1]
	cash, okC := finite(latest.Cash)
	debt, okD := finite(latest.TotalDebt)
	if !okC || !okD {
		return nil
	}
	r := (cash - debt) / mc
	return &r
}

// OwnerEarningsYield returns free cash flow per share over price. A zero FCF
// figure is treated as unreported rather than a genuine 0% yield.
func OwnerEarningsYield(fcfPerShare *float64, price float64) *float64 {
	fcf, ok := finite(fcfPerShare)
	if !ok || fcf == 0 || price <= 0 {
		return nil
	}
	y := fcf / price
	return &y
}

// FcfNiRatio returns free cash flow per share over net income per share,
// undefined when net income is zero.
func FcfNiRatio(fcfPerShare, niPerShare *float64) *float64 {
	fcf, okF := finite(fcfPerShare)
	ni, okN := finite(niPerShare)
	if !okF || !okN || ni == 0 {
		return nil
	}
	r := fcf / ni
	return &r
}

func nopat(is IncomeYear) *float64 {
	opInc, okO := finite(is.OperatingIncome)
	taxExp, okT := finite(is.IncomeTaxExpense)
	pretax, okP := finite(is.IncomeBeforeTax)
	if !okO || !okT || !okP || pretax == 0 {
		return nil
	}
	v := opInc * (1 - taxExp/pretax)
	return &v
}

func investedCapital(bs BalanceYear) *float64 {
	debt, okD := finite(bs.TotalDebt)
	equity, okE := finite(bs.TotalEquity)
	cash, okC := finite(bs.Cash)
	if !okD || !okE || !okC {
		return nil
	}
	v := debt + equity - cash
	return &v
}

func balanceForYear(balance []BalanceYear, year int) *BalanceYear {
	for i := range balance {
		if balance[i].Year == year {
			return &balance[i]
		}
	}
	return nil
}

func sortedIncome(income []IncomeYear) []IncomeYear {
	out := make([]IncomeYear, len(income))
	copy(out, income)
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func sortedBalance(balance []BalanceYear) []BalanceYear {
	out := make([]BalanceYear, len(balance))
	copy(out, balance)
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func finite(p *float64) (float64, bool) {
	if p == nil || !isFinite(*p) {
		return 0, false
	}
	return *p, true
}

func finiteValues(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := finite(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

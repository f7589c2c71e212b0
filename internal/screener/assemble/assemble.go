// Package assemble turns the raw per-symbol payloads from the data sources
// into finished screener records: derived metrics, categorical buckets,
// composite score and flags.
package assemble

import (
	"strconv"
	"time"

	"github.com/seenimoa/deepscreen/internal/datasource"
	"github.com/seenimoa/deepscreen/internal/screener/category"
	"github.com/seenimoa/deepscreen/internal/screener/derive"
	"github.com/seenimoa/deepscreen/internal/screener/score"
	"github.com/seenimoa/deepscreen/pkg/models"
)

// Insider transactions older than this do not count toward net activity.
const insiderWindowMonths = 6

// CatalystSource reports whether recent news mentions a company.
type CatalystSource interface {
	HasCatalyst(symbol, name string) bool
}

// noCatalysts is the fallback when no news source is wired in.
type noCatalysts struct{}

func (noCatalysts) HasCatalyst(string, string) bool { return false }

// Builder assembles Stock records. The zero value works but flags nothing;
// use New to wire in the Reg-SHO list, a catalyst source and a score
// baseline.
type Builder struct {
	regSHO    datasource.RegSHOSet
	catalysts CatalystSource
	baseline  score.BaselineSource
	now       func() time.Time
}

func New(regSHO datasource.RegSHOSet, catalysts CatalystSource, baseline score.BaselineSource) *Builder {
	if catalysts == nil {
		catalysts = noCatalysts{}
	}
	if baseline == nil {
		baseline = score.NewJitterBaseline(time.Now().UnixNano())
	}
	return &Builder{
		regSHO:    regSHO,
		catalysts: catalysts,
		baseline:  baseline,
		now:       time.Now,
	}
}

// Build assembles one record. Every input slot of data may be nil after a
// tolerated fetch failure; missing inputs yield nil metrics and empty
// buckets, never a zero that could satisfy a filter.
func (b *Builder) Build(data *datasource.SymbolData) models.Stock {
	now := b.now()
	item := data.Screener

	stock := models.Stock{
		Symbol:    item.Symbol,
		Name:      item.CompanyName,
		Sector:    item.Sector,
		MarketCap: item.MarketCap,
		FetchedAt: now,
	}
	if item.Price != nil {
		stock.Price = *item.Price
	}

	income := incomeYears(data.Income)
	balance := balanceYears(data.Balance)
	trades := insiderTrades(data.Trades)

	if q := data.Quote; q != nil {
		stock.PriceChangePct1D = q.ChangesPercentage
		stock.YearHigh = q.YearHigh
		stock.YearLow = q.YearLow
		stock.AvgVolume = q.AvgVolume
		if stock.MarketCap == nil {
			stock.MarketCap = q.MarketCap
		}
	}
	if stock.AvgVolume == nil {
		stock.AvgVolume = item.Volume
	}
	stock.SharesOutstanding = sharesOutstanding(data)

	if r := data.Ratios; r != nil {
		stock.PERatioTTM = r.PriceEarningsRatioTTM
		stock.DebtEquityRatioTTM = r.DebtEquityRatioTTM
		stock.NetIncomePerShareTTM = r.NetIncomePerShareTTM
		stock.InterestCoverageTTM = r.InterestCoverageTTM
		// Tangible equity is the better quality signal; plain ROE fills
		// in when the tangible figure is not reported.
		stock.ReturnOnEquityTTM = r.ReturnOnTangibleEquityTTM
		if stock.ReturnOnEquityTTM == nil {
			stock.ReturnOnEquityTTM = r.ReturnOnEquityTTM
		}
	}
	if m := data.KeyMetrics; m != nil {
		stock.DebtToEbitdaTTM = m.DebtToEbitdaTTM
		stock.EVOverEbitdaTTM = m.EnterpriseValueOverEBITDATTM
		stock.FCFPerShareTTM = m.FreeCashFlowPerShareTTM
	}

	stock.FcfNiRatioTTM = derive.FcfNiRatio(stock.FCFPerShareTTM, stock.NetIncomePerShareTTM)
	stock.PncaRatio, stock.PncaUnfavorable = derive.PriceToNCAV(stock.Price, stock.SharesOutstanding, balance)
	stock.ShareCountCAGR3yr = derive.ShareCountCAGR(income)
	stock.GrossMarginTrend = derive.GrossMarginTrend(income)
	stock.IncrementalROIC = derive.IncrementalROIC(income, balance)
	stock.AvgRotce5yr = derive.AvgTangibleROE(income, balance)
	stock.DaysToExitPosition = derive.DaysToExit(stock.SharesOutstanding, stock.AvgVolume)
	stock.NetCashToMarketCap = derive.NetCashToMarketCap(balance, stock.MarketCap)
	stock.RevenueCAGR3yr = derive.RevenueCAGR3yr(income)
	stock.RevenueCAGR5yr = derive.RevenueCAGR5yr(income)
	stock.OwnerEarningsYield = derive.OwnerEarningsYield(stock.FCFPerShareTTM, stock.Price)

	since := now.AddDate(0, -insiderWindowMonths, 0)
	net, buyValue := derive.InsiderActivity(trades, since)
	if data.Trades != nil {
		stock.NetInsiderBuyTx6M = models.Int(net)
		stock.InsiderBuyValueToMarketCap = derive.InsiderBuyValueToMarketCap(buyValue, stock.MarketCap)
	}
	stock.InsiderOwnershipPct = datasource.LatestOwnershipPct(data.Ownership)

	stock.HasCatalyst = b.catalysts.HasCatalyst(stock.Symbol, stock.Name)
	stock.IsRegSho = b.regSHO.Contains(stock.Symbol)

	stock.SimpleScore = score.Compute(score.Inputs{
		FCFPerShare:        stock.FCFPerShareTTM,
		Price:              stock.Price,
		NetCashToMarketCap: stock.NetCashToMarketCap,
		InsiderBuyToMCap:   stock.InsiderBuyValueToMarketCap,
		RevenueCAGR3yr:     stock.RevenueCAGR3yr,
		HasCatalyst:        stock.HasCatalyst,
	})
	stock.Score63DaysAgo = b.baseline.Baseline(stock.Symbol, stock.SimpleScore)
	stock.RankMomentum63 = models.Int(stock.SimpleScore - stock.Score63DaysAgo)

	stock.MarketCapCategory = category.ForMarketCap(stock.MarketCap)
	stock.VolumeCategory = category.ForVolume(stock.AvgVolume)
	stock.DebtCategory = category.ForDebtEquity(stock.DebtEquityRatioTTM)
	stock.ValuationCategory = category.ForPE(stock.PERatioTTM)
	stock.RotceCategory = category.ForROE(stock.ReturnOnEquityTTM)
	stock.DeepValueCategory = category.ForPNCAV(stock.PncaRatio, stock.PncaUnfavorable)
	stock.ShareCountCagrCategory = category.ForShareCountCAGR(stock.ShareCountCAGR3yr)
	stock.InsiderOwnershipCategory = category.ForInsiderOwnership(stock.InsiderOwnershipPct)
	stock.NetInsiderBuysCategory = category.ForNetInsiderBuys(stock.NetInsiderBuyTx6M)
	stock.IncrementalRoicCategory = category.ForIncrementalROIC(stock.IncrementalROIC)

	return stock
}

// sharesOutstanding resolves the share count from the quote, falling back to
// the diluted weighted average and then the common stock line of the latest
// annual statements. Non-positive counts are treated as unreported.
func sharesOutstanding(data *datasource.SymbolData) *float64 {
	candidates := []*float64{}
	if data.Quote != nil {
		candidates = append(candidates, data.Quote.SharesOutstanding)
	}
	if len(data.Income) > 0 {
		candidates = append(candidates, data.Income[0].WeightedAverageShsOutDil)
	}
	if len(data.Balance) > 0 {
		candidates = append(candidates, data.Balance[0].CommonStock)
	}
	for _, c := range candidates {
		if c != nil && *c > 0 {
			return c
		}
	}
	return nil
}

func incomeYears(rows []datasource.IncomeStatement) []derive.IncomeYear {
	years := make([]derive.IncomeYear, 0, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row.CalendarYear)
		if err != nil {
			continue
		}
		years = append(years, derive.IncomeYear{
			Year:              year,
			Revenue:           row.Revenue,
			GrossProfitRatio:  row.GrossProfitRatio,
			OperatingIncome:   row.OperatingIncome,
			IncomeBeforeTax:   row.IncomeBeforeTax,
			IncomeTaxExpense:  row.IncomeTaxExpense,
			NetIncome:         row.NetIncome,
			WeightedAvgShares: row.WeightedAverageShsOutDil,
		})
	}
	return years
}

func balanceYears(rows []datasource.BalanceSheet) []derive.BalanceYear {
	years := make([]derive.BalanceYear, 0, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row.CalendarYear)
		if err != nil {
			continue
		}
		years = append(years, derive.BalanceYear{
			Year:               year,
			TotalCurrentAssets: row.TotalCurrentAssets,
			TotalLiabilities:   row.TotalLiabilities,
			TotalDebt:          row.TotalDebt,
			TotalEquity:        row.TotalStockholdersEquity,
			Goodwill:           row.Goodwill,
			IntangibleAssets:   row.IntangibleAssets,
			Cash:               row.CashAndCashEquivalents,
		})
	}
	return years
}

func insiderTrades(rows []datasource.InsiderTransaction) []derive.InsiderTrade {
	trades := make([]derive.InsiderTrade, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.TransactionDate)
		if err != nil {
			continue
		}
		kind := derive.TradeOther
		switch row.TransactionType {
		case datasource.TransactionPurchase:
			kind = derive.TradePurchase
		case datasource.TransactionSale:
			kind = derive.TradeSale
		}
		trades = append(trades, derive.InsiderTrade{
			Date:   date,
			Kind:   kind,
			Shares: row.SecuritiesTransacted,
			Price:  row.Price,
		})
	}
	return trades
}

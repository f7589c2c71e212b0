package datasource

// Wire types for the Financial Modeling Prep API. Field names follow the
// upstream JSON exactly. Nullable figures decode into pointers so a missing
// line item stays distinguishable from a reported zero.

// ScreenerItem is one row of the /stock-screener endpoint.
type ScreenerItem struct {
	Symbol            string   `json:"symbol"`
	CompanyName       string   `json:"companyName"`
	MarketCap         *float64 `json:"marketCap"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	Price             *float64 `json:"price"`
	Volume            *float64 `json:"volume"`
	ExchangeShortName string   `json:"exchangeShortName"`
	IsEtf             bool     `json:"isEtf"`
	IsFund            bool     `json:"isFund"`
	IsActivelyTrading *bool    `json:"isActivelyTrading"`
}

// Quote is one row of /quote/{symbol}.
type Quote struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	AvgVolume         *float64 `json:"avgVolume"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	YearHigh          *float64 `json:"yearHigh"`
	YearLow           *float64 `json:"yearLow"`
	MarketCap         *float64 `json:"marketCap"`
}

// RatiosTTM is one row of /ratios-ttm/{symbol}.
type RatiosTTM struct {
	PriceEarningsRatioTTM     *float64 `json:"priceEarningsRatioTTM"`
	DebtEquityRatioTTM        *float64 `json:"debtEquityRatioTTM"`
	ReturnOnTangibleEquityTTM *float64 `json:"returnOnTangibleEquityTTM"`
	ReturnOnEquityTTM         *float64 `json:"returnOnEquityTTM"`
	NetIncomePerShareTTM      *float64 `json:"netIncomePerShareTTM"`
	InterestCoverageTTM       *float64 `json:"interestCoverageTTM"`
}

// KeyMetricsTTM is one row of /key-metrics-ttm/{symbol}.
type KeyMetricsTTM struct {
	DebtToEbitdaTTM              *float64 `json:"debtToEbitdaTTM"`
	EnterpriseValueOverEBITDATTM *float64 `json:"enterpriseValueOverEBITDATTM"`
	FreeCashFlowPerShareTTM      *float64 `json:"freeCashFlowPerShareTTM"`
}

// IncomeStatement is one annual row of /income-statement/{symbol}.
type IncomeStatement struct {
	CalendarYear             string   `json:"calendarYear"`
	Revenue                  *float64 `json:"revenue"`
	GrossProfitRatio         *float64 `json:"grossProfitRatio"`
	OperatingIncome          *float64 `json:"operatingIncome"`
	IncomeBeforeTax          *float64 `json:"incomeBeforeTax"`
	IncomeTaxExpense         *float64 `json:"incomeTaxExpense"`
	NetIncome                *float64 `json:"netIncome"`
	WeightedAverageShsOutDil *float64 `json:"weightedAverageShsOutDil"`
}

// BalanceSheet is one annual row of /balance-sheet-statement/{symbol}.
type BalanceSheet struct {
	CalendarYear            string   `json:"calendarYear"`
	TotalCurrentAssets      *float64 `json:"totalCurrentAssets"`
	TotalLiabilities        *float64 `json:"totalLiabilities"`
	TotalDebt               *float64 `json:"totalDebt"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	Goodwill                *float64 `json:"goodwill"`
	IntangibleAssets        *float64 `json:"intangibleAssets"`
	CashAndCashEquivalents  *float64 `json:"cashAndCashEquivalents"`
	CommonStock             *float64 `json:"commonStock"`
}

// InsiderTransaction is one row of the v4 /insider-trading endpoint.
type InsiderTransaction struct {
	TransactionDate      string   `json:"transactionDate"`
	TransactionType      string   `json:"transactionType"`
	SecuritiesTransacted *float64 `json:"securitiesTransacted"`
	Price                *float64 `json:"price"`
}

// Insider transaction type codes used by the derivations.
const (
	TransactionPurchase = "P-Purchase"
	TransactionSale     = "S-Sale"
)

// InsiderOwnership is one row of the v4 /insider-ownership endpoint.
type InsiderOwnership struct {
	FilingDate          string   `json:"filingDate"`
	OwnershipPercentage *float64 `json:"ownershipPercentage"`
}

// SymbolData bundles everything fetched for one symbol during a universe
// refresh. Any field may be nil after a tolerated per-symbol failure.
type SymbolData struct {
	Screener   ScreenerItem
	Quote      *Quote
	Ratios     *RatiosTTM
	KeyMetrics *KeyMetricsTTM
	Income     []IncomeStatement
	Balance    []BalanceSheet
	Trades     []InsiderTransaction
	Ownership  []InsiderOwnership
}

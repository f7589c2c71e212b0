// Package models defines the core data structures used throughout deepscreen.
package models

import "time"

// Stock is one fully assembled screener record for a single company.
// It is built once per universe refresh and never mutated afterwards.
//
// Nullable metrics are pointers: nil means the underlying raw data was
// absent or the derivation was undefined. They are never defaulted to zero.
type Stock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector"`

	// Market data.
	Price             float64  `json:"price"`
	MarketCap         *float64 `json:"marketCap,omitempty"`
	AvgVolume         *float64 `json:"avgVolume,omitempty"`
	SharesOutstanding *float64 `json:"sharesOutstanding,omitempty"`
	PriceChangePct1D  *float64 `json:"priceChangePercentage1D,omitempty"`
	YearHigh          *float64 `json:"yearHigh,omitempty"`
	YearLow           *float64 `json:"yearLow,omitempty"`

	// Raw trailing-twelve-month ratios.
	PERatioTTM           *float64 `json:"peRatioTTM,omitempty"`
	DebtEquityRatioTTM   *float64 `json:"debtEquityRatioTTM,omitempty"`
	ReturnOnEquityTTM    *float64 `json:"returnOnEquityTTM,omitempty"`
	DebtToEbitdaTTM      *float64 `json:"debtToEbitdaTTM,omitempty"`
	EVOverEbitdaTTM      *float64 `json:"enterpriseValueOverEBITDATTM,omitempty"`
	FCFPerShareTTM       *float64 `json:"freeCashFlowPerShareTTM,omitempty"`
	NetIncomePerShareTTM *float64 `json:"netIncomePerShareTTM,omitempty"`
	InterestCoverageTTM  *float64 `json:"interestCoverageTTM,omitempty"`

	// Derived metrics.
	FcfNiRatioTTM              *float64 `json:"fcfNiRatioTTM,omitempty"`
	PncaRatio                  *float64 `json:"pncaRatio,omitempty"`
	PncaUnfavorable            bool     `json:"pncaUnfavorable,omitempty"`
	ShareCountCAGR3yr          *float64 `json:"shareCountCAGR3yr,omitempty"`
	GrossMarginTrend           Trend    `json:"grossMarginTrend,omitempty"`
	IncrementalROIC            *float64 `json:"incrementalROIC,omitempty"`
	NetInsiderBuyTx6M          *int     `json:"netInsiderBuyTxLast6M,omitempty"`
	InsiderOwnershipPct        *float64 `json:"insiderOwnershipPercentage,omitempty"`
	AvgRotce5yr                *float64 `json:"avgRotce5yr,omitempty"`
	DaysToExitPosition         *float64 `json:"daysToExitPosition,omitempty"`
	NetCashToMarketCap         *float64 `json:"netCashToMarketCapRatio,omitempty"`
	InsiderBuyValueToMarketCap *float64 `json:"insiderBuyValueToMarketCapRatio,omitempty"`
	RevenueCAGR3yr             *float64 `json:"revenueCAGR,omitempty"`
	RevenueCAGR5yr             *float64 `json:"revenueCAGR5yr,omitempty"`
	OwnerEarningsYield         *float64 `json:"ownerEarningsYield,omitempty"`

	// Composite score and momentum.
	SimpleScore    int  `json:"simpleScore"`
	Score63DaysAgo int  `json:"score63DaysAgo"`
	RankMomentum63 *int `json:"rankMomentum63,omitempty"`

	// Flags.
	HasCatalyst bool `json:"hasCatalyst"`
	IsRegSho    bool `json:"isRegSho"`

	// Categorical buckets, each derived from the metric of the same name.
	// The zero value of every bucket type means "not available".
	MarketCapCategory        MarketCapBand   `json:"marketCapCategory,omitempty"`
	VolumeCategory           VolumeLevel     `json:"volumeCategory,omitempty"`
	DebtCategory             DebtLevel       `json:"debtCategory,omitempty"`
	ValuationCategory        ValuationClass  `json:"valuationCategory,omitempty"`
	RotceCategory            ROEQuality      `json:"rotceCategory,omitempty"`
	DeepValueCategory        DeepValueBand   `json:"deepValueCategory,omitempty"`
	ShareCountCagrCategory   ShareCountBand  `json:"shareCountCagrCategory,omitempty"`
	InsiderOwnershipCategory InsiderOwnBand  `json:"insiderOwnershipCategory,omitempty"`
	NetInsiderBuysCategory   InsiderActivity `json:"netInsiderBuysCategory,omitempty"`
	IncrementalRoicCategory  IncRoicBand     `json:"incrementalRoicCategory,omitempty"`

	// Placeholder categories. No data source feeds them yet, so they are
	// left empty on every record.
	MoatKeywordsCategory string `json:"moatKeywordsCategory,omitempty"`
	RedFlagsCategory     string `json:"redFlagsCategory,omitempty"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// Float returns a pointer to v. Convenience for building records and fixtures.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

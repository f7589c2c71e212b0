package models

// Categorical bucket types. Each is a distinct string type so a bucket from
// one family can never be compared against another family's values by
// accident. The zero value ("") of every type means the underlying metric
// was not available; it serializes as absent and never matches any named
// bucket in a filter.

// MarketCapBand buckets companies by market capitalization.
type MarketCapBand string

const (
	MarketCapNano     MarketCapBand = "nano"
	MarketCapMicro    MarketCapBand = "micro"
	MarketCapSmall    MarketCapBand = "small"
	MarketCapMidLarge MarketCapBand = "midLarge"
)

// VolumeLevel buckets average daily trading volume.
type VolumeLevel string

const (
	VolumeLow    VolumeLevel = "low"
	VolumeMedium VolumeLevel = "medium"
	VolumeHigh   VolumeLevel = "high"
)

// DebtLevel buckets the debt-to-equity ratio.
type DebtLevel string

const (
	DebtLow    DebtLevel = "low"
	DebtMedium DebtLevel = "medium"
	DebtHigh   DebtLevel = "high"
)

// ValuationClass buckets the trailing P/E ratio.
type ValuationClass string

const (
	ValuationValue  ValuationClass = "value"
	ValuationBlend  ValuationClass = "blend"
	ValuationGrowth ValuationClass = "growth"
)

// ROEQuality buckets return on equity.
type ROEQuality string

const (
	ROEPoor      ROEQuality = "poor"
	ROEAverage   ROEQuality = "average"
	ROEGood      ROEQuality = "good"
	ROEExcellent ROEQuality = "excellent"
)

// DeepValueBand buckets price to net current asset value.
type DeepValueBand string

const (
	DeepValueLe05 DeepValueBand = "le0.5"
	DeepValueLe08 DeepValueBand = "le0.8"
	DeepValueLe10 DeepValueBand = "le1.0"
)

// ShareCountBand buckets the three-year share count CAGR.
type ShareCountBand string

const (
	ShareCountReductionLarge ShareCountBand = "reduction_large"
	ShareCountReductionSmall ShareCountBand = "reduction_small"
	ShareCountFlat           ShareCountBand = "flat"
	ShareCountIncreasing     ShareCountBand = "increasing"
)

// InsiderOwnBand buckets insider ownership percentage.
type InsiderOwnBand string

const (
	InsiderOwnGe20 InsiderOwnBand = "ge20"
	InsiderOwnGe10 InsiderOwnBand = "ge10"
	InsiderOwnGe5  InsiderOwnBand = "ge5"
)

// InsiderActivity buckets net insider buy transactions over six months.
type InsiderActivity string

const (
	InsiderNetBuying  InsiderActivity = "net_buying"
	InsiderNeutral    InsiderActivity = "neutral"
	InsiderNetSelling InsiderActivity = "net_selling"
)

// IncRoicBand buckets incremental return on invested capital.
type IncRoicBand string

const (
	IncRoicGe25 IncRoicBand = "ge25pct"
	IncRoicGe20 IncRoicBand = "ge20pct"
	IncRoicGe15 IncRoicBand = "ge15pct"
)

// Trend classifies the direction of a fundamental series such as gross
// margin over recent fiscal years.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

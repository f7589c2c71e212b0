package models

// BenchmarkAverages holds the mean of each comparison metric across a group
// of stocks. A nil field means no valid samples were available, or for the
// reference index, that too few constituents had data for the metric.
type BenchmarkAverages struct {
	OwnerEarningsYield *float64 `json:"ownerEarningsYield,omitempty"`
	RevenueCAGR5yr     *float64 `json:"revenueCAGR5yr,omitempty"`
	AvgRotce5yr        *float64 `json:"avgRotce5yr,omitempty"`
	NetCashToMarketCap *float64 `json:"netCashToMarketCapRatio,omitempty"`
	RankMomentum63     *float64 `json:"rankMomentum63,omitempty"`
	SampleSize         int      `json:"sampleSize"`
}

// BenchmarkComparison pairs the current screen's averages with the reference
// index averages so the two can be rendered side by side.
type BenchmarkComparison struct {
	Screen    BenchmarkAverages `json:"screen"`
	Reference BenchmarkAverages `json:"reference"`
}

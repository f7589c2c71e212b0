// Package category maps raw metric values onto the screener's categorical
// buckets. Every function is pure: nil input yields the zero bucket, which
// stands for "not available" and never matches a filter selection.
package category

import "github.com/seenimoa/deepscreen/pkg/models"

// ForMarketCap buckets market capitalization in dollars.
func ForMarketCap(marketCap *float64) models.MarketCapBand {
	if marketCap == nil {
		return ""
	}
	switch mc := *marketCap; {
	case mc < 50_000_000:
		return models.MarketCapNano
	case mc < 300_000_000:
		return models.MarketCapMicro
	case mc < 2_000_000_000:
		return models.MarketCapSmall
	default:
		return models.MarketCapMidLarge
	}
}

// ForVolume buckets average daily share volume.
func ForVolume(avgVolume *float64) models.VolumeLevel {
	if avgVolume == nil {
		return ""
	}
	switch v := *avgVolume; {
	case v < 100_000:
		return models.VolumeLow
	case v < 1_000_000:
		return models.VolumeMedium
	default:
		return models.VolumeHigh
	}
}

// ForDebtEquity buckets the debt-to-equity ratio. The medium band is
// inclusive of 1.0 on the high side.
func ForDebtEquity(de *float64) models.DebtLevel {
	if de == nil {
		return ""
	}
	switch d := *de; {
	case d < 0.5:
		return models.DebtLow
	case d <= 1.0:
		return models.DebtMedium
	default:
		return models.DebtHigh
	}
}

// ForPE buckets the trailing P/E ratio. Non-positive earnings leave the
// valuation unclassified.
func ForPE(pe *float64) models.ValuationClass {
	if pe == nil || *pe <= 0 {
		return ""
	}
	switch p := *pe; {
	case p < 15:
		return models.ValuationValue
	case p <= 25:
		return models.ValuationBlend
	default:
		return models.ValuationGrowth
	}
}

// ForROE buckets return on equity. The input is a fraction (0.15 for 15%).
// Both ends of the "good" band are inclusive.
func ForROE(roe *float64) models.ROEQuality {
	if roe == nil {
		return ""
	}
	switch pct := *roe * 100; {
	case pct < 10:
		return models.ROEPoor
	case pct < 15:
		return models.ROEAverage
	case pct <= 20:
		return models.ROEGood
	default:
		return models.ROEExcellent
	}
}

// ForPNCAV buckets the price to net current asset value ratio. A ratio above
// 1.0, a missing ratio, or an unfavorable NCAV (negative net current assets)
// all leave the bucket empty.
func ForPNCAV(ratio *float64, unfavorable bool) models.DeepValueBand {
	if unfavorable || ratio == nil {
		return ""
	}
	switch r := *ratio; {
	case r <= 0.5:
		return models.DeepValueLe05
	case r <= 0.8:
		return models.DeepValueLe08
	case r <= 1.0:
		return models.DeepValueLe10
	default:
		return ""
	}
}

// ForShareCountCAGR buckets the three-year share count growth rate. Rates
// within half a percent of zero either way count as flat.
func ForShareCountCAGR(cagr *float64) models.ShareCountBand {
	if cagr == nil {
		return ""
	}
	switch c := *cagr; {
	case c <= -0.05:
		return models.ShareCountReductionLarge
	case c < -0.005:
		return models.ShareCountReductionSmall
	case c <= 0.005:
		return models.ShareCountFlat
	default:
		return models.ShareCountIncreasing
	}
}

// ForInsiderOwnership buckets insider ownership, given in percent.
func ForInsiderOwnership(pct *float64) models.InsiderOwnBand {
	if pct == nil {
		return ""
	}
	switch p := *pct; {
	case p >= 20:
		return models.InsiderOwnGe20
	case p >= 10:
		return models.InsiderOwnGe10
	case p >= 5:
		return models.InsiderOwnGe5
	default:
		return ""
	}
}

// ForNetInsiderBuys buckets the net count of insider buy transactions over
// the trailing six months.
func ForNetInsiderBuys(net *int) models.InsiderActivity {
	if net == nil {
		return ""
	}
	switch {
	case *net > 0:
		return models.InsiderNetBuying
	case *net < 0:
		return models.InsiderNetSelling
	default:
		return models.InsiderNeutral
	}
}

// ForIncrementalROIC buckets incremental return on invested capital. Values
// below 15% are left unclassified.
func ForIncrementalROIC(roic *float64) models.IncRoicBand {
	if roic == nil {
		return ""
	}
	switch r := *roic; {
	case r >= 0.25:
		return models.IncRoicGe25
	case r >= 0.20:
		return models.IncRoicGe20
	case r >= 0.15:
		return models.IncRoicGe15
	default:
		return ""
	}
}

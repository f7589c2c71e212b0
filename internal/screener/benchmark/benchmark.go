// Package benchmark averages the comparison metrics over a group of stocks,
// both for the user's filtered screen and for an external reference index.
package benchmark

import (
	"math"

	"github.com/seenimoa/deepscreen/pkg/models"
)

// Reference universes abstain from reporting a metric when more than this
// share of constituents is missing data, so a thin minority sample never
// masquerades as an index average.
const minValidShare = 0.8

// ScreenAverages computes the mean of each comparison metric across the
// filtered screen. Missing values are excluded from both numerator and
// denominator; a metric is nil only when no record supplies it at all.
func ScreenAverages(stocks []models.Stock) models.BenchmarkAverages {
	return averages(stocks, 0)
}

// ReferenceAverages computes the same means for a reference universe of
// universeSize requested constituents, abstaining per metric when fewer than
// 80% of them produced a usable value. Records for constituents that failed
// to load entirely are simply absent from stocks, but still count toward
// universeSize.
func ReferenceAverages(stocks []models.Stock, universeSize int) models.BenchmarkAverages {
	minValid := int(math.Ceil(minValidShare * float64(universeSize)))
	return averages(stocks, minValid)
}

func averages(stocks []models.Stock, minValid int) models.BenchmarkAverages {
	return models.BenchmarkAverages{
		OwnerEarningsYield: mean(stocks, minValid, func(s *models.Stock) *float64 { return s.OwnerEarningsYield }),
		RevenueCAGR5yr:     mean(stocks, minValid, func(s *models.Stock) *float64 { return s.RevenueCAGR5yr }),
		AvgRotce5yr:        mean(stocks, minValid, func(s *models.Stock) *float64 { return s.AvgRotce5yr }),
		NetCashToMarketCap: mean(stocks, minValid, func(s *models.Stock) *float64 { return s.NetCashToMarketCap }),
		RankMomentum63: mean(stocks, minValid, func(s *models.Stock) *float64 {
			if s.RankMomentum63 == nil {
				return nil
			}
			v := float64(*s.RankMomentum63)
			return &v
		}),
		SampleSize: len(stocks),
	}
}

func mean(stocks []models.Stock, minValid int, field func(*models.Stock) *float64) *float64 {
	var sum float64
	var n int
	for i := range stocks {
		v := field(&stocks[i])
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 || n < minValid {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

package filter

import (
	"strconv"

	"github.com/seenimoa/deepscreen/pkg/models"
)

// FromSliders compiles the three simple-mode slider positions into the same
// filter vocabulary the advanced evaluator consumes. The mapping is
// deterministic; breakpoints are evaluated top-down and the first match per
// slider wins.
func FromSliders(sliders models.SimpleSliders) models.ActiveFilters {
	filters := make(models.ActiveFilters)
	size, value, quality := sliders.Size, sliders.Value, sliders.Quality

	switch {
	case size <= 25:
		filters["marketCap"] = "nano"
	case size <= 50:
		filters["marketCap"] = "micro"
	case size <= 75:
		filters["marketCap"] = "small"
	default:
		filters["marketCap"] = "midLarge"
	}

	// Value slider: 0 is expensive, 100 is cheap. The extreme end switches
	// to the net-net safety test instead of a P/E class.
	switch {
	case value > 95:
		filters["ncavSafety"] = "le0_66"
	case value > 80:
		filters["peRatio"] = "value"
		filters["evToEbit"] = "le8x"
	case value > 50:
		filters["peRatio"] = "blend"
	case value > 20:
		// Indifferent band: no valuation filter at all.
	default:
		filters["peRatio"] = "growth"
	}

	switch {
	case quality > 90:
		filters["roe"] = "excellent"
		filters["debtEquityRatio"] = "low"
		filters["fcfToNetIncome"] = "ge1.2"
		filters["interestCoverage"] = strconv.Itoa(10)
		filters["gmTrend"] = "improving"
	case quality > 75:
		filters["roe"] = "good"
		filters["debtEquityRatio"] = "low"
		filters["fcfToNetIncome"] = "ge1.0"
		filters["interestCoverage"] = strconv.Itoa(5)
	case quality > 50:
		filters["roe"] = "average"
		filters["debtEquityRatio"] = "medium"
		filters["fcfToNetIncome"] = "ge0.8"
	case quality > 25:
		filters["roe"] = "poor"
	}

	return filters
}

package benchmark

import (
	"math"
	"testing"

	"github.com/seenimoa/deepscreen/pkg/models"
)

func TestScreenAveragesSmallSample(t *testing.T) {
	stocks := []models.Stock{
		{OwnerEarningsYield: models.Float(0.04), RankMomentum63: models.Int(2)},
		{OwnerEarningsYield: models.Float(0.08)},
		{}, // contributes nothing
	}

	got := ScreenAverages(stocks)
	if got.OwnerEarningsYield == nil || math.Abs(*got.OwnerEarningsYield-0.06) > 1e-12 {
		t.Errorf("OwnerEarningsYield = %v, want 0.06", got.OwnerEarningsYield)
	}
	if got.RankMomentum63 == nil || *got.RankMomentum63 != 2 {
		t.Errorf("RankMomentum63 = %v, want 2", got.RankMomentum63)
	}
	if got.AvgRotce5yr != nil {
		t.Errorf("AvgRotce5yr = %v, want nil with zero samples", *got.AvgRotce5yr)
	}
	if got.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", got.SampleSize)
	}
}

func TestReferenceAveragesAbstention(t *testing.T) {
	const universeSize = 100
	build := func(validYield int) []models.Stock {
		stocks := make([]models.Stock, universeSize)
		for i := range stocks {
			if i < validYield {
				stocks[i].OwnerEarningsYield = models.Float(0.05)
			}
			stocks[i].AvgRotce5yr = models.Float(0.15) // always fully populated
		}
		return stocks
	}

	got := ReferenceAverages(build(81), universeSize)
	if got.OwnerEarningsYield == nil {
		t.Error("81% valid samples should still report an average")
	}

	got = ReferenceAverages(build(79), universeSize)
	if got.OwnerEarningsYield != nil {
		t.Errorf("79%% valid samples should abstain, got %v", *got.OwnerEarningsYield)
	}
	// Other metrics are judged independently.
	if got.AvgRotce5yr == nil || math.Abs(*got.AvgRotce5yr-0.15) > 1e-12 {
		t.Errorf("AvgRotce5yr = %v, want 0.15", got.AvgRotce5yr)
	}
}

func TestMeanIgnoresNonFinite(t *testing.T) {
	stocks := []models.Stock{
		{OwnerEarningsYield: models.Float(math.Inf(1))},
		{OwnerEarningsYield: models.Float(math.NaN())},
		{OwnerEarningsYield: models.Float(0.10)},
	}
	got := ScreenAverages(stocks)
	if got.OwnerEarningsYield == nil || *got.OwnerEarningsYield != 0.10 {
		t.Errorf("got %v, want 0.10", got.OwnerEarningsYield)
	}
}

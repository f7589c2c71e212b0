// Package score combines a fixed set of derived metrics into the bounded
// composite used to rank the screener universe, and supplies the synthetic
// historical baseline behind the momentum figure.
package score

import (
	"math"
	"math/rand"
)

// Inputs are the five independent point sources feeding the composite.
// Nil ratios contribute zero points, never a penalty.
type Inputs struct {
	FCFPerShare        *float64
	Price              float64
	NetCashToMarketCap *float64
	InsiderBuyToMCap   *float64
	RevenueCAGR3yr     *float64
	HasCatalyst        bool
}

// Compute returns the composite score on [0,100]. Each source contributes
// points on its own tier table; with the current weights the attainable
// maximum is 90.
func Compute(in Inputs) int {
	score := 0

	if in.FCFPerShare != nil && *in.FCFPerShare != 0 && in.Price > 0 {
		switch y := *in.FCFPerShare / in.Price; {
		case y > 0.10:
			score += 30
		case y > 0.08:
			score += 25
		case y > 0.06:
			score += 20
		case y > 0.04:
			score += 15
		case y > 0.02:
			score += 10
		case y > 0:
			score += 5
		}
	}

	if in.NetCashToMarketCap != nil {
		switch r := *in.NetCashToMarketCap; {
		case r > 0.50:
			score += 20
		case r > 0.25:
			score += 15
		case r > 0.10:
			score += 10
		case r > 0:
			score += 5
		}
	}

	if in.InsiderBuyToMCap != nil {
		switch r := *in.InsiderBuyToMCap; {
		case r > 0.005:
			score += 15
		case r > 0.002:
			score += 10
		case r > 0.0005:
			score += 5
		}
	}

	if in.RevenueCAGR3yr != nil {
		switch c := *in.RevenueCAGR3yr; {
		case c > 0.15:
			score += 20
		case c > 0.10:
			score += 15
		case c > 0.05:
			score += 10
		case c > 0:
			score += 5
		}
	}

	if in.HasCatalyst {
		score += 5
	}

	return clamp(score)
}

// BaselineSource produces the comparison score from roughly one quarter ago.
// The momentum figure is always current minus baseline, whatever the source.
type BaselineSource interface {
	Baseline(symbol string, current int) int
}

// JitterBaseline stands in for a real historical score store by perturbing
// the current score with a pseudo-random shift of up to 5% either way.
type JitterBaseline struct {
	rng *rand.Rand
}

// NewJitterBaseline seeds an independent generator so record assembly does
// not contend on the global rand source.
func NewJitterBaseline(seed int64) *JitterBaseline {
	return &JitterBaseline{rng: rand.New(rand.NewSource(seed))}
}

func (j *JitterBaseline) Baseline(_ string, current int) int {
	shift := j.rng.Float64()*0.10 - 0.05
	return clamp(int(math.Round(float64(current) * (1 + shift))))
}

// FixedBaseline always answers with the same score. Useful for deterministic
// pipelines and tests.
type FixedBaseline int

func (f FixedBaseline) Baseline(string, int) int { return clamp(int(f)) }

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

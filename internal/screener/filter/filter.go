// Package filter evaluates compound screening criteria against the
// assembled stock universe. Each filter key is registered with a typed
// matcher rather than dispatched through a string switch, so every entry
// can be tested in isolation.
//
// Matching policy: numeric filters fail closed when the underlying metric
// is missing (absent data never passes a threshold), while unrecognized
// filter keys fail open so stale or not-yet-implemented UI keys can never
// empty the screen.
package filter

import (
	"strconv"
	"strings"

	"github.com/seenimoa/deepscreen/pkg/models"
)

// matcher decides whether one record satisfies one filter selection.
type matcher interface {
	match(s *models.Stock, value string) bool
}

// bucketMatch compares a precomputed category against the selected value.
// The zero category never equals a non-empty selection, so records with
// missing data are excluded by construction.
type bucketMatch struct {
	field func(*models.Stock) string
}

func (b bucketMatch) match(s *models.Stock, value string) bool {
	return b.field(s) == value
}

// numericMatch tests a nullable numeric field against one of a fixed set of
// named threshold options. Unknown options reject; a nil field rejects; the
// literal "any" passes when enabled.
type numericMatch struct {
	field    func(*models.Stock) *float64
	options  map[string]func(float64) bool
	allowAny bool
}

func (n numericMatch) match(s *models.Stock, value string) bool {
	if n.allowAny && value == "any" {
		return true
	}
	pred, ok := n.options[value]
	if !ok {
		return false
	}
	v := n.field(s)
	if v == nil {
		return false
	}
	return pred(*v)
}

// sliderMatch parses the selection as a number and compares the record's
// field against it. An unparseable selection passes everything; a nil field
// fails.
type sliderMatch struct {
	field func(*models.Stock) *float64
	cmp   func(fieldVal, selected float64) bool
}

func (sl sliderMatch) match(s *models.Stock, value string) bool {
	selected, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return true
	}
	v := sl.field(s)
	if v == nil {
		return false
	}
	return sl.cmp(*v, selected)
}

// funcMatch adapts a bare function.
type funcMatch func(s *models.Stock, value string) bool

func (f funcMatch) match(s *models.Stock, value string) bool { return f(s, value) }

func le(limit float64) func(float64) bool { return func(v float64) bool { return v <= limit } }
func ge(limit float64) func(float64) bool { return func(v float64) bool { return v >= limit } }
func gt(limit float64) func(float64) bool { return func(v float64) bool { return v > limit } }

var registry = map[string]matcher{
	"marketCap": bucketMatch{func(s *models.Stock) string { return string(s.MarketCapCategory) }},
	"volume":    bucketMatch{func(s *models.Stock) string { return string(s.VolumeCategory) }},
	"debtEquityRatio": bucketMatch{func(s *models.Stock) string {
		return string(s.DebtCategory)
	}},
	"peRatio": bucketMatch{func(s *models.Stock) string { return string(s.ValuationCategory) }},
	"roe":     bucketMatch{func(s *models.Stock) string { return string(s.RotceCategory) }},

	"debtToEbitda": numericMatch{
		field: func(s *models.Stock) *float64 { return s.DebtToEbitdaTTM },
		options: map[string]func(float64) bool{
			"le1x": le(1), "le0.5x": le(0.5), "le0.25x": le(0.25),
		},
	},
	"fcfToNetIncome": numericMatch{
		field: func(s *models.Stock) *float64 { return s.FcfNiRatioTTM },
		options: map[string]func(float64) bool{
			"ge0.8": ge(0.8), "ge1.0": ge(1.0), "ge1.2": ge(1.2),
		},
	},
	"evToEbit": numericMatch{
		field: func(s *models.Stock) *float64 { return s.EVOverEbitdaTTM },
		options: map[string]func(float64) bool{
			"le6x": le(6), "le8x": le(8), "le10x": le(10),
		},
	},
	"shareCountChange": numericMatch{
		field: func(s *models.Stock) *float64 { return s.ShareCountCAGR3yr },
		options: map[string]func(float64) bool{
			"reduction_large": le(-0.05),
			"reduction_small": func(v float64) bool { return v < 0 && v > -0.05 },
			"flat":            func(v float64) bool { return v >= -0.005 && v <= 0.005 },
			"increasing":      gt(0.005),
		},
	},
	"priceToNCAV": numericMatch{
		field: func(s *models.Stock) *float64 { return s.PncaRatio },
		options: map[string]func(float64) bool{
			"le0.5": le(0.5), "le0.8": le(0.8), "le1.0": le(1.0),
		},
	},
	"ncavSafety": numericMatch{
		field:   func(s *models.Stock) *float64 { return s.PncaRatio },
		options: map[string]func(float64) bool{"le0_66": le(0.66)},
	},
	"insiderOwn": numericMatch{
		field: func(s *models.Stock) *float64 { return s.InsiderOwnershipPct },
		options: map[string]func(float64) bool{
			"ge5": ge(5), "ge10": ge(10), "ge20": ge(20),
		},
	},
	"netInsiderTrx": numericMatch{
		field: func(s *models.Stock) *float64 {
			if s.NetInsiderBuyTx6M == nil {
				return nil
			}
			v := float64(*s.NetInsiderBuyTx6M)
			return &v
		},
		options: map[string]func(float64) bool{
			"net_buying": ge(1), "neutral": func(v float64) bool { return v == 0 }, "net_selling": le(-1),
		},
		allowAny: true,
	},
	"gmTrend": funcMatch(func(s *models.Stock, value string) bool {
		if value == "any" {
			return true
		}
		if s.GrossMarginTrend == "" {
			return false
		}
		return string(s.GrossMarginTrend) == value
	}),
	"incRoic": numericMatch{
		field: func(s *models.Stock) *float64 { return s.IncrementalROIC },
		options: map[string]func(float64) bool{
			"ge15pct": ge(0.15), "ge20pct": ge(0.20), "ge25pct": ge(0.25),
		},
	},
	"interestCoverage": sliderMatch{
		field: func(s *models.Stock) *float64 { return s.InterestCoverageTTM },
		cmp:   func(v, selected float64) bool { return v >= selected },
	},
	"avgRotce5yr": numericMatch{
		field: func(s *models.Stock) *float64 { return s.AvgRotce5yr },
		options: map[string]func(float64) bool{
			"gt20": gt(0.20), "gt15": gt(0.15), "gt10": gt(0.10), "anyPositive": gt(0),
		},
	},
	"liquiditySafety": sliderMatch{
		field: func(s *models.Stock) *float64 { return s.DaysToExitPosition },
		cmp:   func(v, selected float64) bool { return v <= selected },
	},
	"rankMomentum": funcMatch(func(s *models.Stock, value string) bool {
		if value != "positive" {
			return true
		}
		return s.RankMomentum63 != nil && *s.RankMomentum63 > 0
	}),
	"catalystOnly": funcMatch(func(s *models.Stock, value string) bool {
		return value != "true" || s.HasCatalyst
	}),
	"excludeRegSho": funcMatch(func(s *models.Stock, value string) bool {
		return value != "true" || !s.IsRegSho
	}),
}

// Apply returns the records satisfying the free-text search and every active
// filter. The input slice is never modified.
func Apply(stocks []models.Stock, req models.ScreenRequest) []models.Stock {
	out := make([]models.Stock, 0, len(stocks))
	search := strings.ToLower(strings.TrimSpace(req.Search))
	for i := range stocks {
		s := &stocks[i]
		if search != "" && !matchesSearch(s, search) {
			continue
		}
		if !matchesFilters(s, req.Filters) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// Matches reports whether a single record passes the active filter set.
func Matches(s *models.Stock, filters models.ActiveFilters) bool {
	return matchesFilters(s, filters)
}

// Page truncates the filtered result to the first page*perPage records.
// Truncation only limits how many rows are materialized; it never changes
// which records qualify.
func Page(stocks []models.Stock, page, perPage int) []models.Stock {
	if page < 1 || perPage < 1 {
		return stocks
	}
	limit := page * perPage
	if limit >= len(stocks) {
		return stocks
	}
	return stocks[:limit]
}

func matchesSearch(s *models.Stock, lowered string) bool {
	return strings.Contains(strings.ToLower(s.Symbol), lowered) ||
		strings.Contains(strings.ToLower(s.Name), lowered) ||
		strings.Contains(strings.ToLower(s.Sector), lowered)
}

func matchesFilters(s *models.Stock, filters models.ActiveFilters) bool {
	for key, value := range filters {
		if value == "" || value == "false" {
			continue
		}
		m, ok := registry[key]
		if !ok {
			// Unknown keys, including catalyst_* placeholders, never
			// exclude a record.
			continue
		}
		if !m.match(s, value) {
			return false
		}
	}
	return true
}

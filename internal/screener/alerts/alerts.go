// Package alerts watches successive universe snapshots for per-symbol state
// transitions and raises edge-triggered notifications. Two independent
// channels exist per symbol: momentum crossing zero upward, and price
// crossing below an intrinsic-value proxy. An alert fires only on the
// transition itself, never on sustained state, and each kind+symbol pair can
// be suppressed for the rest of the session once the user dismisses it.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/deepscreen/internal/session"
	"github.com/seenimoa/deepscreen/pkg/models"
)

type ivState int

const (
	ivAbove ivState = iota
	ivBelow
)

// The intrinsic-value proxy is 70% of a 10x multiple on free cash flow per
// share, i.e. price below 7x FCF/share.
const ivMultiple = 7.0

// Engine is the stateful alert detector. It keeps a live reference to the
// most recent snapshot, so an external re-check always evaluates the latest
// data rather than the data present when the re-check was requested.
type Engine struct {
	mu           sync.Mutex
	suppression  session.Store
	prevMomentum map[string]int
	prevIV       map[string]ivState
	latest       []models.Stock
	now          func() time.Time
}

func NewEngine(suppression session.Store) *Engine {
	return &Engine{
		suppression:  suppression,
		prevMomentum: make(map[string]int),
		prevIV:       make(map[string]ivState),
		now:          time.Now,
	}
}

// ObserveSnapshot records a freshly assembled universe as the latest known
// state and evaluates both channels against it. The returned alerts are the
// ones that fired and were not suppressed.
func (e *Engine) ObserveSnapshot(stocks []models.Stock) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latest = stocks
	return e.evaluate()
}

// Reevaluate runs both channels against the latest known snapshot without
// replacing it. With unchanged data this is a no-op by construction, since
// no new transitions exist.
func (e *Engine) Reevaluate() []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluate()
}

// Dismiss marks a suppression key so the matching kind+symbol alert will not
// be emitted again this session.
func (e *Engine) Dismiss(suppressionKey string) {
	e.suppression.Set(suppressionKey, "true")
}

func (e *Engine) evaluate() []models.Alert {
	var fired []models.Alert
	for i := range e.latest {
		s := &e.latest[i]
		if s.Symbol == "" {
			continue
		}
		if a := e.checkMomentum(s); a != nil {
			fired = append(fired, *a)
		}
		if a := e.checkValuation(s); a != nil {
			fired = append(fired, *a)
		}
	}
	return fired
}

// checkMomentum fires when momentum is positive now and was previously
// unknown or non-positive. The stored value always tracks the current
// reading; a missing reading clears it so a later positive one fires again.
func (e *Engine) checkMomentum(s *models.Stock) *models.Alert {
	prev, known := e.prevMomentum[s.Symbol]
	curr := s.RankMomentum63

	var fired *models.Alert
	if curr != nil && *curr > 0 && (!known || prev <= 0) {
		key := "momentumToast_" + s.Symbol
		if !e.suppressed(key) {
			fired = e.newAlert(s.Symbol, models.AlertMomentum, models.SeverityInfo, key,
				fmt.Sprintf("📈 %s momentum just turned positive", s.Symbol))
		}
	}

	if curr != nil {
		e.prevMomentum[s.Symbol] = *curr
	} else {
		delete(e.prevMomentum, s.Symbol)
	}
	return fired
}

// checkValuation fires when the price drops below the intrinsic-value proxy
// from any other state, including the very first observation. When the proxy
// is undefined the stored state is cleared, so the channel can re-fire after
// data gaps.
func (e *Engine) checkValuation(s *models.Stock) *models.Alert {
	fcf := s.FCFPerShareTTM
	applicable := fcf != nil && *fcf > 0 && s.Price > 0

	var curr ivState
	if applicable {
		if s.Price < *fcf*ivMultiple {
			curr = ivBelow
		} else {
			curr = ivAbove
		}
	}

	prev, known := e.prevIV[s.Symbol]

	var fired *models.Alert
	if applicable && curr == ivBelow && (!known || prev != ivBelow) {
		key := "intrinsicValueToast_" + s.Symbol
		if !e.suppressed(key) {
			fired = e.newAlert(s.Symbol, models.AlertValuation, models.SeverityWarning, key,
				fmt.Sprintf("⚠️ %s is now trading at less than 70%% of our IV estimate.", s.Symbol))
		}
	}

	if applicable {
		e.prevIV[s.Symbol] = curr
	} else {
		delete(e.prevIV, s.Symbol)
	}
	return fired
}

func (e *Engine) suppressed(key string) bool {
	v, ok := e.suppression.Get(key)
	return ok && v == "true"
}

func (e *Engine) newAlert(symbol string, kind models.AlertKind, severity models.AlertSeverity, key, message string) *models.Alert {
	return &models.Alert{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Kind:           kind,
		Severity:       severity,
		Message:        message,
		SuppressionKey: key,
		At:             e.now(),
	}
}

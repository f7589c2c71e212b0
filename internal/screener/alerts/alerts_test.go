package alerts

import (
	"testing"

	"github.com/seenimoa/deepscreen/internal/session"
	"github.com/seenimoa/deepscreen/pkg/models"
)

func momentumSnapshot(symbol string, momentum *int) []models.Stock {
	return []models.Stock{{Symbol: symbol, RankMomentum63: momentum}}
}

func valuationSnapshot(symbol string, price float64, fcfPerShare *float64) []models.Stock {
	return []models.Stock{{Symbol: symbol, Price: price, FCFPerShareTTM: fcfPerShare}}
}

func countKind(alerts []models.Alert, kind models.AlertKind) int {
	n := 0
	for _, a := range alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func TestMomentumFiresOnZeroCrossing(t *testing.T) {
	e := NewEngine(session.NewMemory())

	if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(-2))); len(got) != 0 {
		t.Fatalf("negative momentum fired: %v", got)
	}
	got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(5)))
	if countKind(got, models.AlertMomentum) != 1 {
		t.Fatalf("crossing zero should fire once, got %v", got)
	}
	if got[0].SuppressionKey != "momentumToast_ACME" {
		t.Errorf("suppression key = %q", got[0].SuppressionKey)
	}
}

func TestMomentumNeverCrossingNeverFires(t *testing.T) {
	e := NewEngine(session.NewMemory())
	for _, m := range []int{-2, -1, -3} {
		if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(m))); len(got) != 0 {
			t.Fatalf("momentum %d fired: %v", m, got)
		}
	}
}

func TestMomentumAlreadyPositiveDoesNotRefire(t *testing.T) {
	e := NewEngine(session.NewMemory())

	// The first positive observation fires (previous state unknown).
	if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(5))); len(got) != 1 {
		t.Fatalf("first positive observation should fire, got %v", got)
	}
	// Staying positive must not.
	if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(8))); len(got) != 0 {
		t.Fatalf("5 -> 8 fired: %v", got)
	}
}

func TestMomentumAbsentReadingResetsChannel(t *testing.T) {
	e := NewEngine(session.NewMemory())

	e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(5)))
	if got := e.ObserveSnapshot(momentumSnapshot("ACME", nil)); len(got) != 0 {
		t.Fatalf("absent momentum fired: %v", got)
	}
	// After the reset, a positive reading fires again even though the last
	// numeric reading was already positive.
	if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(3))); len(got) != 1 {
		t.Fatalf("positive after reset should fire, got %v", got)
	}
}

func TestValuationFiresBelowThreshold(t *testing.T) {
	e := NewEngine(session.NewMemory())
	fcf := models.Float(10) // threshold 70

	if got := e.ObserveSnapshot(valuationSnapshot("ACME", 80, fcf)); len(got) != 0 {
		t.Fatalf("above threshold fired: %v", got)
	}
	got := e.ObserveSnapshot(valuationSnapshot("ACME", 69, fcf))
	if countKind(got, models.AlertValuation) != 1 {
		t.Fatalf("drop below threshold should fire once, got %v", got)
	}
	if got[0].Severity != models.SeverityWarning {
		t.Errorf("severity = %q", got[0].Severity)
	}
}

func TestValuationRefiresAfterRecovery(t *testing.T) {
	e := NewEngine(session.NewMemory())
	fcf := models.Float(10)

	total := 0
	for _, price := range []float64{80, 69, 75, 68} {
		total += countKind(e.ObserveSnapshot(valuationSnapshot("ACME", price, fcf)), models.AlertValuation)
	}
	if total != 2 {
		t.Errorf("80->69->75->68 fired %d times, want 2", total)
	}
}

func TestValuationFirstObservationBelowFires(t *testing.T) {
	e := NewEngine(session.NewMemory())
	if got := e.ObserveSnapshot(valuationSnapshot("ACME", 50, models.Float(10))); len(got) != 1 {
		t.Fatalf("first observation below threshold should fire, got %v", got)
	}
}

func TestValuationNonPositiveFCFNeverFires(t *testing.T) {
	e := NewEngine(session.NewMemory())
	for _, fcf := range []*float64{models.Float(0), models.Float(-4), nil} {
		for _, price := range []float64{1, 50, 500} {
			if got := e.ObserveSnapshot(valuationSnapshot("ACME", price, fcf)); len(got) != 0 {
				t.Fatalf("fcf=%v price=%v fired: %v", fcf, price, got)
			}
		}
	}
}

func TestValuationNotApplicableResetsChannel(t *testing.T) {
	e := NewEngine(session.NewMemory())
	fcf := models.Float(10)

	e.ObserveSnapshot(valuationSnapshot("ACME", 69, fcf)) // fires, state below
	e.ObserveSnapshot(valuationSnapshot("ACME", 69, nil)) // data gap, state cleared
	if got := e.ObserveSnapshot(valuationSnapshot("ACME", 69, fcf)); len(got) != 1 {
		t.Fatalf("below after reset should fire, got %v", got)
	}
}

func TestSuppressionBlocksEmissionButNotState(t *testing.T) {
	store := session.NewMemory()
	e := NewEngine(store)
	fcf := models.Float(10)

	got := e.ObserveSnapshot(valuationSnapshot("ACME", 69, fcf))
	if len(got) != 1 {
		t.Fatalf("expected initial fire, got %v", got)
	}
	e.Dismiss(got[0].SuppressionKey)

	// Recover and drop again: the transition happens but stays silent.
	e.ObserveSnapshot(valuationSnapshot("ACME", 80, fcf))
	if got := e.ObserveSnapshot(valuationSnapshot("ACME", 69, fcf)); len(got) != 0 {
		t.Fatalf("suppressed alert emitted: %v", got)
	}

	// A fresh session clears suppression; the next transition fires again.
	store.Reset()
	e.ObserveSnapshot(valuationSnapshot("ACME", 80, fcf))
	if got := e.ObserveSnapshot(valuationSnapshot("ACME", 69, fcf)); len(got) != 1 {
		t.Fatalf("expected fire after session reset, got %v", got)
	}
}

func TestSuppressedTransitionStillUpdatesState(t *testing.T) {
	store := session.NewMemory()
	e := NewEngine(store)

	// Dismiss up front, then cross zero: nothing emitted, but the engine
	// must remember the positive reading.
	store.Set("momentumToast_ACME", "true")
	if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(4))); len(got) != 0 {
		t.Fatalf("suppressed momentum emitted: %v", got)
	}

	// Clearing suppression alone must not cause a late fire: momentum is
	// still positive, so no new transition exists.
	store.Reset()
	if got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(6))); len(got) != 0 {
		t.Fatalf("no transition but fired: %v", got)
	}
}

func TestReevaluateUsesLatestSnapshotWithoutRefiring(t *testing.T) {
	e := NewEngine(session.NewMemory())

	got := e.ObserveSnapshot(momentumSnapshot("ACME", models.Int(5)))
	if len(got) != 1 {
		t.Fatalf("expected initial fire, got %v", got)
	}
	// A forced re-check of unchanged data finds no new transitions.
	if got := e.Reevaluate(); len(got) != 0 {
		t.Fatalf("re-check refired: %v", got)
	}
}

func TestChannelsAreIndependentPerSymbol(t *testing.T) {
	e := NewEngine(session.NewMemory())
	snapshot := []models.Stock{
		{Symbol: "AAA", RankMomentum63: models.Int(2), Price: 69, FCFPerShareTTM: models.Float(10)},
		{Symbol: "BBB", RankMomentum63: models.Int(-1), Price: 80, FCFPerShareTTM: models.Float(10)},
	}
	got := e.ObserveSnapshot(snapshot)
	if countKind(got, models.AlertMomentum) != 1 || countKind(got, models.AlertValuation) != 1 {
		t.Fatalf("expected one momentum and one valuation alert for AAA, got %v", got)
	}
	for _, a := range got {
		if a.Symbol != "AAA" {
			t.Errorf("alert for wrong symbol: %v", a)
		}
	}
}

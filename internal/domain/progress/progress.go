// Package progress turns ledger rows and rotation goals into the normalized
// percentages shown to residents and supervisors.
//
// Everything here is pure: no I/O, no clocks. Keeping the clamping rules in
// one place means the dashboard and any report agree on the numbers.
package progress

import (
	"math"

	"github.com/dalemusser/residenthub/internal/domain/models"
)

// State is the validation state of a single ledger row.
type State string

const (
	StateUntouched State = "untouched" // count == 0
	StatePending   State = "pending"   // count > validated
	StateValidated State = "validated" // count == validated > 0
)

// Projection is the display view of one ledger row against its goal.
type Projection struct {
	ValidatedPct float64 `json:"validated_pct"`
	PendingPct   float64 `json:"pending_pct"`
	RemainingPct float64 `json:"remaining_pct"`
	State        State   `json:"state"`
	Complete     bool    `json:"complete"`
}

// StateOf classifies a row.
func StateOf(row models.ProcedureLog) State {
	switch {
	case row.Count <= 0:
		return StateUntouched
	case row.Count > row.ValidatedCount:
		return StatePending
	default:
		return StateValidated
	}
}

// Project computes the validated and pending shares of goal.
//
// A goal of zero (or less) counts as already complete and yields 0% for both
// bars. Percentages are clamped to [0,100] and pending never pushes the sum
// past 100.
func Project(row models.ProcedureLog, goal int64) Projection {
	p := Projection{State: StateOf(row)}
	if goal <= 0 {
		p.Complete = true
		return p
	}

	validated := nonNegative(row.ValidatedCount)
	pending := row.Pending()

	p.ValidatedPct = clamp(pct(validated, goal), 0, 100)
	p.PendingPct = clamp(pct(pending, goal), 0, 100-p.ValidatedPct)
	p.RemainingPct = clamp(100-p.ValidatedPct-p.PendingPct, 0, 100)
	p.Complete = validated >= goal
	return p
}

// Totals aggregates the procedures of one rotation.
type Totals struct {
	Goal           int64   `json:"goal"`
	Count          int64   `json:"count"`
	ValidatedCount int64   `json:"validated_count"`
	ValidatedPct   float64 `json:"validated_pct"`
	PendingPct     float64 `json:"pending_pct"`
	Completed      int     `json:"completed"`
	Procedures     int     `json:"procedures"`
}

// Line pairs a row with the goal it is measured against.
type Line struct {
	Row  models.ProcedureLog
	Goal int64
}

// Summarize rolls lines up into rotation totals. Each procedure contributes
// at most its goal, so logging far past one goal cannot hide another
// procedure that has not been started.
func Summarize(lines []Line) Totals {
	var t Totals
	var validatedCapped, pendingCapped int64
	for _, l := range lines {
		goal := nonNegative(l.Goal)
		t.Procedures++
		t.Goal += goal
		t.Count += nonNegative(l.Row.Count)
		t.ValidatedCount += nonNegative(l.Row.ValidatedCount)

		v := min(nonNegative(l.Row.ValidatedCount), goal)
		validatedCapped += v
		pendingCapped += min(l.Row.Pending(), goal-v)

		if Project(l.Row, goal).Complete {
			t.Completed++
		}
	}
	if t.Goal > 0 {
		t.ValidatedPct = clamp(pct(validatedCapped, t.Goal), 0, 100)
		t.PendingPct = clamp(pct(pendingCapped, t.Goal), 0, 100-t.ValidatedPct)
	}
	return t
}

// pct multiplies before dividing so 3 of 10 is exactly 30.
func pct(n, goal int64) float64 {
	if n > math.MaxInt64/100 {
		return float64(n) * 100 / float64(goal)
	}
	return float64(n*100) / float64(goal)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

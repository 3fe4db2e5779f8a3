// Package projection recomputes running balance sequences from ordered
// ledger lines. It is a pure read-side view: it never mutates stored
// balances, it only explains them.
package projection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Line is the minimal shape the projector needs from a ledger line.
// Seq is the creation sequence of the line (entry number or line id) and
// disambiguates lines sharing a date; running balance is order-dependent,
// so the sort key is always (Date, Seq), never insertion order.
type Line struct {
	Date   time.Time
	Seq    int64
	Ref    string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Step pairs a line with the running balance after applying it.
type Step struct {
	Line    Line
	Running decimal.Decimal
}

// Project folds lines into a running balance sequence starting from
// opening. Lines are sorted stably by (Date, Seq) before folding, so the
// caller may pass them in any order.
func Project(lines []Line, opening decimal.Decimal) []Step {
	ordered := make([]Line, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	steps := make([]Step, 0, len(ordered))
	running := opening
	for _, line := range ordered {
		running = running.Add(line.Debit).Sub(line.Credit)
		steps = append(steps, Step{Line: line, Running: running})
	}
	return steps
}

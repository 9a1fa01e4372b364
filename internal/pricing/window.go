package pricing

import (
	"time"

	"extranet/internal/domain"
)

// Window is the rolling date range in which the engine may write prices on
// behalf of a read. Partner saves are never gated by it.
type Window struct {
	PastDays     int
	FutureMonths int
}

func DefaultWindow() Window { return Window{PastDays: 2, FutureMonths: 6} }

// Bounds returns the inclusive [from, to] days for the given instant.
func (w Window) Bounds(now time.Time) (from, to time.Time) {
	today := domain.DateOf(now.UTC())
	return today.AddDate(0, 0, -w.PastDays), today.AddDate(0, w.FutureMonths, 0)
}

func (w Window) IsWritable(date, now time.Time) bool {
	from, to := w.Bounds(now)
	d := domain.DateOf(date)
	return !d.Before(from) && !d.After(to)
}

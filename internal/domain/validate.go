package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoBars is returned when a bar sequence is empty.
var ErrNoBars = errors.New("empty bar sequence")

// ValidateBars checks the input contract the backtester relies on: a
// non-empty sequence with strictly increasing timestamps and finite,
// positive OHLC prices. Volume must be finite and non-negative. The first
// violation is reported; the caller is expected to abort before simulating.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return ErrNoBars
	}

	for i, b := range bars {
		if b.Timestamp.IsZero() {
			return fmt.Errorf("bar %d: zero timestamp", i)
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after previous %s",
				i, b.Timestamp.Format("2006-01-02T15:04:05"), bars[i-1].Timestamp.Format("2006-01-02T15:04:05"))
		}
		for _, p := range [...]struct {
			name  string
			value float64
		}{
			{"open", b.Open},
			{"high", b.High},
			{"low", b.Low},
			{"close", b.Close},
		} {
			if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
				return fmt.Errorf("bar %d: %s is not finite", i, p.name)
			}
			if p.value <= 0 {
				return fmt.Errorf("bar %d: %s price %v is not positive (missing field?)", i, p.name, p.value)
			}
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return fmt.Errorf("bar %d: invalid volume %v", i, b.Volume)
		}
	}
	return nil
}

// Package indicator implements the technical indicator library used by the
// backtesting engine. Every function is a pure transformation from an input
// series (or bar sequence) to one or more aligned output series of the same
// length.
//
// Rolling-window indicators carry a warm-up prefix of NaN values until the
// first fully populated window; callers are expected to tolerate and
// propagate NaN rather than treat it as an error. A NaN inside a window
// poisons that window's output, matching the semantics of a rolling
// aggregation over a series with undefined leading values.
package indicator

import "math"

// nans returns a slice of length n filled with NaN.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// diff returns the first difference of xs. The first element is NaN.
func diff(xs []float64) []float64 {
	out := nans(len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// windowApply computes fn over each trailing window of size period. Output is
// NaN before the first full window and for any window containing a NaN.
func windowApply(xs []float64, period int, fn func(window []float64) float64) []float64 {
	out := nans(len(xs))
	if period <= 0 || period > len(xs) {
		return out
	}
outer:
	for i := period - 1; i < len(xs); i++ {
		window := xs[i-period+1 : i+1]
		for _, v := range window {
			if math.IsNaN(v) {
				continue outer
			}
		}
		out[i] = fn(window)
	}
	return out
}

func rollingMean(xs []float64, period int) []float64 {
	return windowApply(xs, period, func(w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum / float64(len(w))
	})
}

func rollingSum(xs []float64, period int) []float64 {
	return windowApply(xs, period, func(w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum
	})
}

func rollingMax(xs []float64, period int) []float64 {
	return windowApply(xs, period, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

func rollingMin(xs []float64, period int) []float64 {
	return windowApply(xs, period, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// rollingStd computes the trailing sample standard deviation (n-1 divisor).
func rollingStd(xs []float64, period int) []float64 {
	return windowApply(xs, period, func(w []float64) float64 {
		if len(w) < 2 {
			return math.NaN()
		}
		mean := 0.0
		for _, v := range w {
			mean += v
		}
		mean /= float64(len(w))

		ss := 0.0
		for _, v := range w {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(w)-1))
	})
}

package domain

import (
	"math"
	"testing"
	"time"
)

func makeBars(closes ...float64) []Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Market:    "KRW-BTC",
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

func TestValidateBars(t *testing.T) {
	if err := ValidateBars(makeBars(100, 101, 102)); err != nil {
		t.Fatalf("ValidateBars returned error for valid input: %v", err)
	}
}

func TestValidateBarsEmpty(t *testing.T) {
	if err := ValidateBars(nil); err != ErrNoBars {
		t.Fatalf("ValidateBars(nil) = %v, want ErrNoBars", err)
	}
}

func TestValidateBarsNonMonotonic(t *testing.T) {
	bars := makeBars(100, 101, 102)
	bars[2].Timestamp = bars[1].Timestamp
	if err := ValidateBars(bars); err == nil {
		t.Fatal("ValidateBars accepted duplicate timestamps")
	}

	bars = makeBars(100, 101, 102)
	bars[1].Timestamp = bars[0].Timestamp.Add(-time.Minute)
	if err := ValidateBars(bars); err == nil {
		t.Fatal("ValidateBars accepted decreasing timestamps")
	}
}

func TestValidateBarsMissingPrice(t *testing.T) {
	bars := makeBars(100, 101)
	bars[1].Close = 0 // zero value stands in for a missing column
	if err := ValidateBars(bars); err == nil {
		t.Fatal("ValidateBars accepted zero close price")
	}

	bars = makeBars(100, 101)
	bars[0].High = math.NaN()
	if err := ValidateBars(bars); err == nil {
		t.Fatal("ValidateBars accepted NaN high price")
	}
}

func TestValidateBarsNegativeVolume(t *testing.T) {
	bars := makeBars(100)
	bars[0].Volume = -1
	if err := ValidateBars(bars); err == nil {
		t.Fatal("ValidateBars accepted negative volume")
	}
}

// Package discount derives the discount percentage of a current price
// relative to a product's historical average.
package discount

import "math"

// Percent computes the signed deviation of current from the mean of
// history, in percent, rounded to one decimal place. Negative means
// the price is below its historical average.
//
// history holds the successfully observed prices from days before the
// current observation; failed-fetch days are excluded by the caller.
// When history is empty there is no average to compare against and ok
// is false: the discount cell stays blank rather than being computed
// against a vacuous average.
func Percent(history []int64, current int64) (pct float64, ok bool) {
	if len(history) == 0 {
		return 0, false
	}

	var sum int64
	for _, p := range history {
		sum += p
	}
	avg := float64(sum) / float64(len(history))
	if avg <= 0 {
		return 0, false
	}

	pct = (float64(current) - avg) / avg * 100
	return math.Round(pct*10) / 10, true
}

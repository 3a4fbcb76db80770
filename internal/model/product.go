package model

import "time"

// ProductRef identifies a product on the platform.
// Both parts come from the i.<shop>.<item> segment of a product URL.
type ProductRef struct {
	ShopID int64 `json:"shopId"`
	ItemID int64 `json:"itemId"`
}

// FailureKind classifies a failed price observation.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureBadLink   FailureKind = "bad_link"
	FailureNotFound  FailureKind = "not_found"
	FailureForbidden FailureKind = "forbidden"
	FailureTimeout   FailureKind = "timeout"
	FailureMalformed FailureKind = "malformed"
)

// PricePoint is one day's observation for a product: either a price
// in integral currency units or a failure marker. A zero Point with
// OK=false means the day was never fetched.
type PricePoint struct {
	Date    time.Time   `json:"date"`
	Price   int64       `json:"price"`
	OK      bool        `json:"ok"`
	Failure FailureKind `json:"failure,omitempty"`
}

// ProductRow is one tracked product: its identity plus the full
// price history in date-column order.
type ProductRow struct {
	// SheetRow is the 1-based row number in the source sheet.
	SheetRow int    `json:"sheetRow"`
	Link     string `json:"link"`
	Var1     string `json:"var1"`
	Var2     string `json:"var2"`

	History []PricePoint `json:"history"`

	// Discount is recomputed every run from History; nil means no
	// historical average was available.
	Discount *float64 `json:"discount,omitempty"`
}

// PriceOn returns the observation recorded for the given calendar day.
func (r *ProductRow) PriceOn(date time.Time) (PricePoint, bool) {
	y, m, d := date.Date()
	for _, p := range r.History {
		py, pm, pd := p.Date.Date()
		if py == y && pm == m && pd == d {
			return p, true
		}
	}
	return PricePoint{}, false
}

// SuccessfulPricesBefore returns the successfully observed prices
// strictly before the given day, in date-column order.
func (r *ProductRow) SuccessfulPricesBefore(date time.Time) []int64 {
	cutoff := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]int64, 0, len(r.History))
	for _, p := range r.History {
		if !p.OK {
			continue
		}
		day := time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(cutoff) {
			out = append(out, p.Price)
		}
	}
	return out
}

package user

import "math"

// PurchaseStats summarizes one user's purchases of a single barcode
type PurchaseStats struct {
	Count         int
	TotalQuantity float64
}

// Score maps purchase frequency and volume onto [0,1]
func (s PurchaseStats) Score() float64 {
	if s.Count <= 0 {
		return 0
	}
	freq := math.Min(1, float64(s.Count)/5)
	vol := math.Min(1, math.Max(0, s.TotalQuantity)/10)
	return (freq + vol) / 2
}

package core

import "time"

// monthLabelLayout renders a bucket key like "Jan 2024". Labels are derived in
// the local time zone of the process; two timestamps in the same calendar
// month share a bucket regardless of day.
const monthLabelLayout = "Jan 2006"

// MonthlySeries is the month-bucketed time series behind the dashboard chart:
// one label per distinct month encountered, with four parallel accumulator
// sequences.
type MonthlySeries struct {
	Labels    []string  `json:"labels"`
	Products  []int     `json:"products"`
	Inventory []int     `json:"inventory"`
	Orders    []int     `json:"orders"`
	Sales     []float64 `json:"sales"`
}

// BuildMonthlySeries buckets orders and products by creation month. Orders are
// walked first, then products, each in fetch order. The label sequence is
// first-insertion order: whichever month shows up first in that walk comes
// first. It is not sorted chronologically; the chart expects encounter order.
//
// Records with a zero creation timestamp are skipped: they cannot be assigned
// a calendar month and must not crash bucketing.
func BuildMonthlySeries(orders []Order, products []Product) MonthlySeries {
	var s MonthlySeries
	index := make(map[string]int)

	bucket := func(t time.Time) (int, bool) {
		if t.IsZero() {
			return 0, false
		}
		// Labels derive from the process-local zone, whatever location the
		// adapter attached. A UTC timestamp near a month boundary must land
		// in the same bucket on every backend.
		label := t.In(time.Local).Format(monthLabelLayout)
		i, ok := index[label]
		if !ok {
			i = len(s.Labels)
			index[label] = i
			s.Labels = append(s.Labels, label)
			s.Products = append(s.Products, 0)
			s.Inventory = append(s.Inventory, 0)
			s.Orders = append(s.Orders, 0)
			s.Sales = append(s.Sales, 0)
		}
		return i, true
	}

	for _, o := range orders {
		if i, ok := bucket(o.CreatedAt); ok {
			s.Orders[i]++
			s.Sales[i] += o.Total
		}
	}
	for _, p := range products {
		if i, ok := bucket(p.CreatedAt); ok {
			s.Products[i]++
			s.Inventory[i] += p.Inventory
		}
	}
	return s
}

// Len returns the number of distinct month buckets.
func (s MonthlySeries) Len() int { return len(s.Labels) }

package core

// Summary holds the scalar dashboard aggregates for one fetched record set.
type Summary struct {
	TotalProducts   int
	TotalInventory  int
	TotalStockValue float64
	TotalOrders     int
	StatusCounts    map[OrderStatus]int
}

// Summarize computes the scalar summary over the fetched products and orders.
// It is pure: inputs are never mutated and running it twice over the same
// record set yields identical output. Empty inputs produce all-zero totals.
func Summarize(products []Product, orders []Order) Summary {
	s := Summary{StatusCounts: make(map[OrderStatus]int, len(KnownStatuses))}
	for _, st := range KnownStatuses {
		s.StatusCounts[st] = 0
	}

	s.TotalProducts = len(products)
	for _, p := range products {
		// Negative or missing values pass through arithmetically; the
		// upstream store does not validate them and neither do we.
		s.TotalInventory += p.Inventory
		s.TotalStockValue += p.Price * float64(p.Inventory)
	}

	s.TotalOrders = len(orders)
	for _, o := range orders {
		if o.Status.Known() {
			s.StatusCounts[o.Status]++
		}
	}
	return s
}

// CountByStatus returns the number of orders in the given recognized state.
// Unrecognized states always count zero.
func (s Summary) CountByStatus(st OrderStatus) int {
	return s.StatusCounts[st]
}

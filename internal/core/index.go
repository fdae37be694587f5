package core

// Index read helpers. Bookings are kept sorted by (start, surgery id) inside
// the store state, so overlap scans stop at the first booking starting at or
// after the queried interval's end.

// Overlapping returns the bookings on a resource whose intervals intersect
// the given half-open interval.
func Overlapping(view RuleView, kind ResourceKind, id string, interval Interval) []Booking {
	var out []Booking
	for _, b := range view.Bookings(kind, id) {
		if b.Interval.Start >= interval.End {
			break
		}
		if b.Interval.Overlaps(interval) {
			out = append(out, b)
		}
	}
	return out
}

// FreeSlots filters the candidate timeslots down to those with no booking
// overlap on the resource, preserving caller order.
func FreeSlots(view RuleView, kind ResourceKind, id string, candidates []Timeslot) []Timeslot {
	var out []Timeslot
	for _, slot := range candidates {
		if len(Overlapping(view, kind, id, slot.Interval())) == 0 {
			out = append(out, slot)
		}
	}
	return out
}

// overlappingPairs sweeps a sorted booking list and yields every overlapping
// pair exactly once.
func overlappingPairs(bookings []Booking, emit func(a, b Booking)) {
	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings); j++ {
			if bookings[j].Interval.Start >= bookings[i].Interval.End {
				break
			}
			emit(bookings[i], bookings[j])
		}
	}
}

func orderedPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// Package signature restores the logical reading order of a saddle-stitch
// booklet scan. A bound booklet is scanned sheet by sheet without unfolding,
// so the file interleaves the outer and inner halves of each folded sheet;
// the resolver computes, for every logical reading position, which physical
// page of the scan belongs there.
package signature

import "fmt"

// Unresolved marks a logical slot that no physical page was assigned to.
const Unresolved = -1

// Mapping holds one physical page index per logical slot. Slot L contains
// the 0-based physical index that belongs at logical position L, or
// Unresolved. Built once per run and treated as immutable afterwards.
type Mapping []int

// UnresolvedSlots returns the logical slots that have no physical page assigned.
func (m Mapping) UnresolvedSlots() []int {
	var slots []int
	for l, p := range m {
		if p == Unresolved {
			slots = append(slots, l)
		}
	}
	return slots
}

// Complete reports whether every logical slot has a physical page.
func (m Mapping) Complete() bool {
	for _, p := range m {
		if p == Unresolved {
			return false
		}
	}
	return true
}

// Resolve maps a physical page count to the logical reading order.
//
// Physical pages come off the scanner in repeating groups of four: the two
// outer halves of a folded sheet and the two inner halves. Indices with
// i mod 4 in {0,3} belong to the back half of the booklet, counted inward
// from the last logical page; indices with i mod 4 in {1,2} belong to the
// front half, counted forward from the first. Pages are assigned in pairs,
// so an odd count leaves exactly one slot unresolved; the caller is expected
// to warn and continue. A negative count is the only error.
func Resolve(pageCount int) (Mapping, error) {
	if pageCount < 0 {
		return nil, fmt.Errorf("invalid page count %d", pageCount)
	}

	m := make(Mapping, pageCount)
	for l := range m {
		m[l] = Unresolved
	}

	// Only complete pairs are assigned; a trailing unpaired page of an
	// odd-count scan has no partner on its sheet and stays unplaced.
	limit := pageCount - pageCount%2
	for i := 0; i < limit; i++ {
		var logical int
		switch i % 4 {
		case 0, 3:
			logical = pageCount - 1 - i/2
		default: // 1, 2
			logical = i / 2
		}
		m[logical] = i
	}

	return m, nil
}

// Package donor tracks which calendar years each donor has contributed in and
// classifies contributions from repeat donors.
//
// A donor is a repeat donor for a contribution in year Y when a contribution
// from a year strictly earlier than Y is already on record. Same-year repeats
// and the donor's first year never qualify.
package donor

import "github.com/rewired-gh/donation-analytics/internal/models"

// YearSet is the set of years a donor has contributed in
type YearSet map[int]struct{}

// Add records year in the set
func (s YearSet) Add(year int) {
	s[year] = struct{}{}
}

// Contains reports whether year is recorded
func (s YearSet) Contains(year int) bool {
	_, ok := s[year]
	return ok
}

// HasBefore reports whether any recorded year is strictly less than year
func (s YearSet) HasBefore(year int) bool {
	for y := range s {
		if y < year {
			return true
		}
	}
	return false
}

// Tracker maps donor identities to the years they contributed in.
// It is not safe for concurrent use; the owning processor serializes access.
type Tracker struct {
	years map[models.DonorIdentity]YearSet
}

// NewTracker creates an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{years: make(map[models.DonorIdentity]YearSet)}
}

// CheckAndRecord records year for the donor and reports whether the donor
// already had a contribution from an earlier year.
func (t *Tracker) CheckAndRecord(id models.DonorIdentity, year int) bool {
	set, exists := t.years[id]
	if !exists {
		t.years[id] = YearSet{year: {}}
		return false
	}

	repeat := set.HasBefore(year)
	set.Add(year)
	return repeat
}

// Years returns the years recorded for the donor, or nil if unknown
func (t *Tracker) Years(id models.DonorIdentity) YearSet {
	return t.years[id]
}

// Len returns the number of distinct donors seen
func (t *Tracker) Len() int {
	return len(t.years)
}

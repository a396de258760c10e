// Package percentile maintains a running nearest-rank percentile over a stream
// of amounts.
//
// Amounts are split across two heaps: small, a max-heap holding the
// ceil(p*n) lowest-ranked amounts, and large, a min-heap holding the rest.
// The percentile is the top of small. Each Add costs O(log n) and each query
// O(1). Ties resolve toward the higher value (numpy "higher" interpolation).
package percentile

import "math"

// rankEpsilon absorbs float error in p*n when the product is a whole number,
// e.g. 0.07*100 evaluating to 7.000000000000001.
const rankEpsilon = 1e-9

// Running is a single running-percentile series.
// It is not safe for concurrent use.
type Running struct {
	p     float64
	small maxHeap
	large minHeap
	total float64
}

// New creates a Running estimator for the percentile p in (0, 1].
// p above 1 is treated as 1.
func New(p float64) *Running {
	if p > 1 {
		p = 1
	}
	return &Running{p: p}
}

// Add inserts an amount and rebalances the heaps so that small holds exactly
// ceil(p*n) elements.
func (r *Running) Add(amount float64) {
	r.total += amount

	if r.small.Len() == 0 || amount <= r.small.top() {
		pushMax(&r.small, amount)
	} else {
		pushMin(&r.large, amount)
	}

	// Sizes move by one per Add and the target rank by at most one, so a
	// single transfer restores the invariant.
	k := r.rank()
	switch {
	case r.small.Len() > k:
		pushMin(&r.large, popMax(&r.small))
	case r.small.Len() < k:
		pushMax(&r.small, popMin(&r.large))
	}
}

// Percentile returns the current nearest-rank percentile value.
// ok is false before the first Add.
func (r *Running) Percentile() (value float64, ok bool) {
	if r.small.Len() == 0 {
		return 0, false
	}
	return r.small.top(), true
}

// Total returns the sum of all amounts added
func (r *Running) Total() float64 {
	return r.total
}

// Count returns the number of amounts added
func (r *Running) Count() int {
	return r.small.Len() + r.large.Len()
}

func (r *Running) rank() int {
	k := int(math.Ceil(r.p*float64(r.Count()) - rankEpsilon))
	if k < 1 {
		k = 1
	}
	return k
}

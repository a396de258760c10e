package percentile

import "container/heap"

// minHeap is a container/heap min-ordered collection of amounts.
type minHeap []float64

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(float64)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxHeap reuses minHeap storage with the comparison inverted.
type maxHeap struct{ minHeap }

func (h maxHeap) Less(i, j int) bool { return h.minHeap[i] > h.minHeap[j] }

func (h minHeap) top() float64 { return h[0] }

func pushMin(h *minHeap, v float64) { heap.Push(h, v) }
func popMin(h *minHeap) float64     { return heap.Pop(h).(float64) }
func pushMax(h *maxHeap, v float64) { heap.Push(h, v) }
func popMax(h *maxHeap) float64     { return heap.Pop(h).(float64) }

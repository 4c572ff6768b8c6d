package search

import (
	"container/heap"

	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
)

type frontierItem struct {
	node     *state.State
	priority float64
	seq      uint64
}

// priorityFrontier is a min-heap on f. Equal priorities pop in insertion
// order so runs are reproducible.
type priorityFrontier struct {
	items   frontierHeap
	nextSeq uint64
}

func newPriorityFrontier() *priorityFrontier {
	return &priorityFrontier{}
}

func (f *priorityFrontier) Len() int { return len(f.items) }

func (f *priorityFrontier) Push(node *state.State, priority float64) {
	heap.Push(&f.items, &frontierItem{node: node, priority: priority, seq: f.nextSeq})
	f.nextSeq++
}

// Pop removes the lowest-priority node. It returns nil when empty.
func (f *priorityFrontier) Pop() (*state.State, float64) {
	if len(f.items) == 0 {
		return nil, 0
	}
	item := heap.Pop(&f.items).(*frontierItem)
	return item.node, item.priority
}

type frontierHeap []*frontierItem

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) {
	*h = append(*h, x.(*frontierItem))
}

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// fifoFrontier is the breadth-first open list.
type fifoFrontier struct {
	items []*state.State
	head  int
}

func (f *fifoFrontier) Len() int { return len(f.items) - f.head }

func (f *fifoFrontier) Push(node *state.State) {
	f.items = append(f.items, node)
}

func (f *fifoFrontier) Pop() *state.State {
	if f.head >= len(f.items) {
		return nil
	}
	node := f.items[f.head]
	f.items[f.head] = nil
	f.head++
	// Reclaim the consumed prefix once it dominates the slice.
	if f.head > 1024 && f.head*2 > len(f.items) {
		f.items = append([]*state.State(nil), f.items[f.head:]...)
		f.head = 0
	}
	return node
}

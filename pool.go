package main

import (
	"container/heap"
	"fmt"
)

// delayEntry is one edge waiting in a pool's delay queue.
type delayEntry struct {
	edge *Edge
	seq  int
}

// delayQueue is a max-heap on (critical_path_weight, insertion order),
// mirroring the ready queue's ordering rule (§4.2, invariant 6). It is a
// plain container/heap rather than gocontainer's queue/priorityqueue: the
// retrieved corpus only shows that package driven through
// priorityqueue.New().WithComparator(cmp), and never shows cmp's own
// method set, so there is nothing to ground a Comparator implementation
// on beyond guessing (see DESIGN.md).
type delayQueue struct {
	entries []delayEntry
	nextSeq int
}

func newDelayQueue() *delayQueue {
	dq := &delayQueue{}
	heap.Init(dq)
	return dq
}

func (dq *delayQueue) Len() int { return len(dq.entries) }
func (dq *delayQueue) Less(i, j int) bool {
	wi, wj := dq.entries[i].edge.critical_path_weight_, dq.entries[j].edge.critical_path_weight_
	if wi != wj {
		return wi > wj
	}
	return dq.entries[i].seq < dq.entries[j].seq
}
func (dq *delayQueue) Swap(i, j int) { dq.entries[i], dq.entries[j] = dq.entries[j], dq.entries[i] }
func (dq *delayQueue) Push(x interface{}) {
	dq.entries = append(dq.entries, x.(delayEntry))
}
func (dq *delayQueue) Pop() interface{} {
	old := dq.entries
	n := len(old)
	e := old[n-1]
	dq.entries = old[:n-1]
	return e
}

func (dq *delayQueue) push(edge *Edge) {
	heap.Push(dq, delayEntry{edge: edge, seq: dq.nextSeq})
	dq.nextSeq++
}

func (dq *delayQueue) pop() *Edge {
	if dq.Len() == 0 {
		return nil
	}
	return heap.Pop(dq).(delayEntry).edge
}

func NewPool(name string, depth int) *Pool {
	return &Pool{name_: name, depth_: depth, delayed_: newDelayQueue()}
}

func (this *Pool) name() string { return this.name_ }
func (this *Pool) depth() int   { return this.depth_ }
func (this *Pool) is_valid() bool {
	return this.depth_ >= 0
}

// ShouldDelayEdge reports whether starting one more edge would exceed this
// pool's depth. The console pool delays an edge whenever one of its own
// edges is in flight, whatever its depth_; edges of other pools are not
// counted, so they can run alongside a console edge.
func (this *Pool) ShouldDelayEdge() bool {
	if this == kConsolePool {
		return this.current_use_ > 0
	}
	if this.depth_ <= 0 {
		return false
	}
	return this.current_use_+1 > this.depth_
}

// DelayEdge inserts edge into this pool's delay queue, ordered by
// descending critical-path weight with insertion-order tiebreak.
func (this *Pool) DelayEdge(edge *Edge) {
	if this.delayed_ == nil {
		this.delayed_ = newDelayQueue()
	}
	this.delayed_.push(edge)
}

// RetrieveReadyEdges pops edges out of the delay queue into plan's ready
// queue while this pool still has capacity.
func (this *Pool) RetrieveReadyEdges(plan *Plan) {
	if this.delayed_ == nil {
		return
	}
	for this.delayed_.Len() > 0 && !this.ShouldDelayEdge() {
		edge := this.delayed_.pop()
		plan.readyQueuePush(edge)
		this.EdgeScheduled(edge)
	}
}

func (this *Pool) EdgeScheduled(edge *Edge) {
	if this.depth_ > 0 {
		this.current_use_ += edge.weight()
	} else {
		this.current_use_++
	}
}

func (this *Pool) EdgeFinished(edge *Edge) {
	if this.depth_ > 0 {
		this.current_use_ -= edge.weight()
	} else {
		this.current_use_--
	}
}

func (this *Pool) Dump() {
	fmt.Printf("%s (%d/%d) . ", this.name_, this.current_use_, this.depth_)
	if this.delayed_ != nil {
		for _, e := range this.delayed_.entries {
			fmt.Printf("\t%s\n", e.edge.rule_.name())
		}
	}
}

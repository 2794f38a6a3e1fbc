package main

import (
	"container/heap"
	"fmt"

	"github.com/edwingeng/deque"
)

// edgeDeque is the backflow worklist ComputeCriticalPath walks from
// targets down to their inputs.
type edgeDeque struct {
	d deque.Deque
}

func newEdgeDeque() *edgeDeque { return &edgeDeque{d: deque.NewDeque()} }
func (this *edgeDeque) push(e *Edge) { this.d.PushBack(e) }
func (this *edgeDeque) pop() *Edge   { return this.d.PopFront().(*Edge) }
func (this *edgeDeque) empty() bool  { return this.d.Len() == 0 }

func (this *Plan) Len() int { return len(this.ready_) }
func (this *Plan) Less(i, j int) bool {
	wi, wj := this.ready_[i].edge.critical_path_weight(), this.ready_[j].edge.critical_path_weight()
	if wi != wj {
		return wi > wj
	}
	return this.ready_[i].seq < this.ready_[j].seq
}
func (this *Plan) Swap(i, j int) { this.ready_[i], this.ready_[j] = this.ready_[j], this.ready_[i] }
func (this *Plan) Push(x interface{}) { this.ready_ = append(this.ready_, x.(readyEntry)) }
func (this *Plan) Pop() interface{} {
	old := this.ready_
	n := len(old)
	e := old[n-1]
	this.ready_ = old[:n-1]
	return e
}

// readyQueuePush inserts edge into the plan-wide ready queue. Pool
// delivers edges here once they clear its depth check (see pool.go).
func (this *Plan) readyQueuePush(edge *Edge) {
	heap.Push(this, readyEntry{edge: edge, seq: this.nextSeq_})
	this.nextSeq_++
}

func (this *Plan) moreToDo() bool { return this.wantedEdges_ > 0 && this.commandEdges_ > 0 }

// CommandEdgeCount reports how many non-phony edges the plan has taken on,
// finished ones included, for Status's "[N/M]" progress total (§4.4).
func (this *Plan) CommandEdgeCount() int { return this.commandEdges_ }

// SetStatus wires a Status so the plan can report edges entering and
// leaving the want set as it discovers or cleans them.
func (this *Plan) SetStatus(status Status) { this.status_ = status }

// PlanDyndepLoader is the single upward call a Plan makes: once a pending
// dyndep file finishes building, the plan can't fold its contents in by
// itself (that requires DependencyScan/DiskInterface access it doesn't
// hold), so it hands the node back to whatever loads dyndep files for it
// (§4.2 node_finished).
type PlanDyndepLoader interface {
	LoadDyndeps(node *Node) error
}

// SetDyndepLoader wires the callback nodeFinished uses once a pending
// dyndep file itself finishes building.
func (this *Plan) SetDyndepLoader(loader PlanDyndepLoader) { this.dyndepLoader_ = loader }

// AddTarget marks node, and everything it transitively depends on, as
// wanted (§4.2 AddTarget/AddSubTarget).
func (this *Plan) AddTarget(node *Node) (bool, error) {
	this.dyndepWalk_ = map[*Edge]bool{}
	return this.addSubTarget(node, nil)
}

// edgeWanted records that edge has newly become part of the plan: every
// wanted edge counts toward wantedEdges_, but only edges with an actual
// command count toward commandEdges_ and the reported progress total
// (phony edges are bookkeeping, not work).
func (this *Plan) edgeWanted(edge *Edge) {
	this.wantedEdges_++
	if !edge.is_phony() {
		this.commandEdges_++
		if this.status_ != nil {
			this.status_.EdgeAddedToPlan(edge)
		}
	}
}

func (this *Plan) addSubTarget(node *Node, dependent *Node) (bool, error) {
	edge := node.in_edge()
	if edge == nil {
		if node.dirty() {
			msg := fmt.Sprintf("'%s' missing and no known rule to make it", node.path())
			if dependent != nil {
				msg = fmt.Sprintf("%s (needed by '%s')", msg, dependent.path())
			}
			return false, fmt.Errorf("%s", msg)
		}
		return false, nil
	}

	if edge.outputs_ready() {
		return false, nil
	}

	want, known := this.want_[node]
	if known {
		if !node.dirty() && want == WantNothing {
			return false, nil
		}
		return true, nil
	}

	if !node.dirty() {
		this.want_[node] = WantNothing
		return false, nil
	}

	this.want_[node] = WantToStart
	this.edgeWanted(edge)

	edge.outputs_ready_ = false

	if node.dyndep_pending() && !this.dyndepWalk_[edge] {
		this.dyndepWalk_[edge] = true
	}

	remaining := 0
	for _, in := range edge.inputs_ {
		childDirty, err := this.addSubTarget(in, node)
		if err != nil {
			return false, err
		}
		if childDirty || (in.in_edge() != nil && !in.in_edge().outputs_ready()) {
			remaining++
		}
	}
	for _, v := range edge.validations_ {
		if _, err := this.addSubTarget(v, node); err != nil {
			return false, err
		}
	}

	// Scheduling is deferred: an edge whose inputs are already ready here
	// still has to wait for ComputeCriticalPath to weigh it before it can
	// enter the ready heap in the right order (§4.2 invariant 2). See
	// ScheduleInitialEdges, which PrepareQueue runs once every target has
	// been added and weights have been assigned.
	this.edgeInputsReady_[edge] = remaining
	return true, nil
}

// scheduleWork moves edge into the ready queue, or into its pool's delay
// queue if the pool is already saturated (§4.2 invariant 6). An edge
// sharing an order-only input with one of its own dependents, or a node
// that names the same output edge twice, can reach here a second time
// once it's already WantToFinish; do nothing rather than queue it twice.
func (this *Plan) scheduleWork(edge *Edge) {
	if this.want_[edge.outputs_[0]] == WantToFinish {
		return
	}
	this.want_[edge.outputs_[0]] = WantToFinish
	pool := edge.pool()
	if pool.ShouldDelayEdge() {
		pool.DelayEdge(edge)
		pool.RetrieveReadyEdges(this)
	} else {
		pool.EdgeScheduled(edge)
		this.readyQueuePush(edge)
	}
}

// edgeMaybeReady schedules edge once every input it has is available. An
// edge the plan doesn't actually want any more is instead marked
// finished outright, so its own dependents still see it as satisfied
// (§4.2 edge_maybe_ready) — used by DyndepsLoaded, which can make an
// edge ready without the incremental edgeInputsReady_ count ever having
// reached zero, since a dyndep can hand it all-new, already-built inputs.
func (this *Plan) edgeMaybeReady(edge *Edge) error {
	want, known := this.want_[edge.outputs_[0]]
	if !known || !edge.AllInputsReady() {
		return nil
	}
	if want != WantNothing {
		this.scheduleWork(edge)
		return nil
	}
	return this.EdgeFinished(edge, true)
}

// FindWork pops the highest-priority ready edge, if any. commandEdges_
// counts the non-phony edges the plan has taken on (bumped in edgeWanted,
// dropped only in CleanNode) — neither popping an edge off the ready heap
// nor finishing it changes that count.
func (this *Plan) FindWork() (*Edge, bool) {
	if this.Len() == 0 {
		return nil, false
	}
	entry := heap.Pop(this).(readyEntry)
	return entry.edge, true
}

// EdgeFinished records the result of a completed edge, propagating
// readiness to whatever depended on it (§4.4 FinishCommand -> Plan).
func (this *Plan) EdgeFinished(edge *Edge, success bool) error {
	edge.pool().EdgeFinished(edge)
	edge.pool().RetrieveReadyEdges(this)

	if !success {
		for _, out := range edge.outputs_ {
			this.want_[out] = WantNothing
		}
		return nil
	}

	if want, known := this.want_[edge.outputs_[0]]; known && want != WantNothing {
		this.wantedEdges_--
	}
	delete(this.want_, edge.outputs_[0])

	edge.outputs_ready_ = true
	for _, out := range edge.outputs_ {
		if err := this.nodeFinished(out); err != nil {
			return err
		}
	}
	return nil
}

// nodeFinished notifies node's consumers that one more of their inputs is
// ready, then — if node is itself a pending dyndep file — hands control
// back up to the Builder to load it, the only upward call the plan makes
// (§4.2 node_finished, S5).
func (this *Plan) nodeFinished(node *Node) error {
	for _, edge := range node.out_edges() {
		remaining, ok := this.edgeInputsReady_[edge]
		if !ok {
			continue
		}
		// CleanNode may already have demoted this edge to WantNothing
		// (restat found its inputs unchanged) before this callback runs;
		// don't resurrect it into the ready queue.
		if want, known := this.want_[edge.outputs_[0]]; !known || want == WantNothing {
			continue
		}
		if remaining > 0 {
			remaining--
			this.edgeInputsReady_[edge] = remaining
		}
		if remaining == 0 && edge.AllInputsReady() {
			this.scheduleWork(edge)
		}
	}

	if node.dyndep_pending() {
		if this.dyndepLoader_ == nil {
			return fmt.Errorf("'%s' has dyndep info but no dyndep loader is wired to the plan", node.path())
		}
		return this.dyndepLoader_.LoadDyndeps(node)
	}
	return nil
}

// CleanNode marks node itself clean, then walks its consuming edges: any
// edge the plan still wants whose non-order-only inputs are all clean
// gets its own outputs re-checked with RecomputeOutputsDirty, and if
// those turn out unchanged too, the edge is demoted out of the plan
// instead of run, implementing restat (§4.4, invariant 5): a rule marked
// "restat" whose output mtime did not move after all can leave every
// dependent clean, avoiding a cascade of unnecessary rebuilds.
func (this *Plan) CleanNode(node *Node) (bool, error) {
	node.set_dirty(false)

	for _, edge := range node.out_edges() {
		want, known := this.want_[edge.outputs_[0]]
		if !known || want == WantNothing {
			continue
		}
		if edge.deps_missing_ {
			continue
		}

		anyInputDirty := false
		for i, in := range edge.inputs_ {
			if edge.is_order_only(i) {
				continue
			}
			if in.dirty() {
				anyInputDirty = true
				break
			}
		}
		if anyInputDirty {
			continue
		}

		var mostRecentInput *Node
		for i, in := range edge.inputs_ {
			if edge.is_order_only(i) {
				continue
			}
			if mostRecentInput == nil || in.mtime() > mostRecentInput.mtime() {
				mostRecentInput = in
			}
		}

		var outputsDirty bool
		if err := this.scan_.RecomputeOutputsDirty(edge, mostRecentInput, &outputsDirty); err != nil {
			return false, err
		}
		if outputsDirty {
			continue
		}

		for _, out := range edge.outputs_ {
			if _, err := this.CleanNode(out); err != nil {
				return false, err
			}
		}

		this.want_[edge.outputs_[0]] = WantNothing
		this.wantedEdges_--
		if !edge.is_phony() {
			this.commandEdges_--
			if this.status_ != nil {
				this.status_.EdgeRemovedFromPlan(edge)
			}
		}
	}
	return true, nil
}

// DyndepsLoaded folds newly-discovered inputs/outputs from node's dyndep
// file into the plan, now that DyndepLoader has already spliced them into
// the graph itself (§4.2 steps i-v, S5):
//
//	(i)   refresh the dirty state of every node downstream of node, since a
//	      dyndep-declared output can retroactively make a dependent dirty
//	      that RecomputeDirty had no way to know about beforehand;
//	(ii)  promote any edge that dirty-state refresh newly implicates from
//	      WantNothing to WantToStart;
//	(iii) pull each edge's newly-declared implicit inputs into the plan as
//	      their own subtargets, extending edgeInputsReady_ to match;
//	(iv)  fold node's own out-edges into the same walk, since node itself
//	      just finished and they may now be satisfied;
//	(v)   check every edge touched by (iii)/(iv) for readiness.
func (this *Plan) DyndepsLoaded(node *Node, ddf DyndepFile) error {
	if err := this.refreshDyndepDependents(node); err != nil {
		return err
	}

	type dyndepRoot struct {
		edge *Edge
		deps *Dyndeps
	}
	var roots []dyndepRoot
	for edge, deps := range ddf {
		if edge.outputs_ready() {
			continue
		}
		if _, known := this.want_[edge.outputs_[0]]; !known {
			continue
		}
		roots = append(roots, dyndepRoot{edge, deps})
	}

	walked := map[*Edge]bool{}
	for _, root := range roots {
		remaining := this.edgeInputsReady_[root.edge]
		for _, in := range root.deps.implicitInputs {
			childDirty, err := this.addSubTarget(in, node)
			if err != nil {
				return err
			}
			if childDirty || (in.in_edge() != nil && !in.in_edge().outputs_ready()) {
				remaining++
			}
		}
		this.edgeInputsReady_[root.edge] = remaining
		walked[root.edge] = true
	}

	for _, edge := range node.out_edges() {
		if _, known := this.want_[edge.outputs_[0]]; known {
			walked[edge] = true
		}
	}

	for edge := range walked {
		if err := this.edgeMaybeReady(edge); err != nil {
			return err
		}
	}
	return nil
}

// refreshDyndepDependents revisits every node downstream of node with
// RecomputeDirty, since dyndep-declared outputs can make a dependent
// dirty in a way the original scan couldn't have known about, and
// promotes any edge that newly turns out dirty from WantNothing to
// WantToStart so the plan actually schedules it.
func (this *Plan) refreshDyndepDependents(node *Node) error {
	dependents := map[*Node]bool{}
	this.unmarkDyndepDependents(node, dependents)

	for dependent := range dependents {
		var validationNodes []*Node
		if err := this.scan_.RecomputeDirty(dependent, &validationNodes); err != nil {
			return err
		}
		for _, v := range validationNodes {
			if inEdge := v.in_edge(); inEdge != nil && !inEdge.outputs_ready() {
				if _, err := this.AddTarget(v); err != nil {
					return err
				}
			}
		}
		if !dependent.dirty() {
			continue
		}

		edge := dependent.in_edge()
		if edge == nil || edge.outputs_ready() {
			return fmt.Errorf("dyndep: %s has no pending producing edge", dependent.path())
		}
		want, known := this.want_[edge.outputs_[0]]
		if !known {
			return fmt.Errorf("dyndep: %s is not part of the plan", dependent.path())
		}
		if want == WantNothing {
			this.want_[edge.outputs_[0]] = WantToStart
			this.edgeWanted(edge)
		}
	}
	return nil
}

// unmarkDyndepDependents resets the VisitDone mark on every edge the plan
// still wants downstream of node, so RecomputeDirty is willing to walk
// them again, and collects their output nodes into dependents.
func (this *Plan) unmarkDyndepDependents(node *Node, dependents map[*Node]bool) {
	for _, edge := range node.out_edges() {
		if _, known := this.want_[edge.outputs_[0]]; !known {
			continue
		}
		if edge.mark_ == VisitNone {
			continue
		}
		edge.mark_ = VisitNone
		for _, out := range edge.outputs_ {
			if !dependents[out] {
				dependents[out] = true
				this.unmarkDyndepDependents(out, dependents)
			}
		}
	}
}

// ComputeCriticalPath assigns every edge a weight equal to the longest
// phony-discounted chain of edges from it to any wanted target, using an
// edwingeng/deque worklist to flow weights backward from targets to their
// inputs (§4.2 "critical-path weighting").
func (this *Plan) ComputeCriticalPath(targets []*Node) {
	depth := map[*Edge]int64{}
	worklist := newEdgeDeque()
	for _, t := range targets {
		if e := t.in_edge(); e != nil {
			worklist.push(e)
		}
	}

	for !worklist.empty() {
		edge := worklist.pop()
		w := depth[edge]
		if !edge.is_phony() {
			w++
		}
		edge.set_critical_path_weight(w)
		for _, in := range edge.inputs_ {
			inEdge := in.in_edge()
			if inEdge == nil {
				continue
			}
			if w > depth[inEdge] {
				depth[inEdge] = w
				worklist.push(inEdge)
			}
		}
	}
}

// PrepareQueue computes critical-path weights and then pushes every edge
// that is already fully ready into the queue, called once after AddTarget
// has been run for every requested target. Weights must exist before
// anything enters the ready/delay heaps, since they're keyed on
// critical_path_weight_ (§4.2 invariant 2) — see ScheduleInitialEdges.
func (this *Plan) PrepareQueue(targets []*Node) error {
	this.ComputeCriticalPath(targets)
	return this.ScheduleInitialEdges()
}

// ScheduleInitialEdges pushes every edge addSubTarget found with no
// pending inputs into the ready queue or a pool's delay queue, now that
// every edge has a critical-path weight to order by. It must run before
// anything else has been scheduled, mirroring the reference's own
// assertion that the ready queue starts out empty here (build_plan.go's
// ScheduleInitialEdges). Delayed pools are drained only once, at the
// end, so higher-priority edges are retrieved first rather than
// whichever pool happened to fill up first in map iteration order.
func (this *Plan) ScheduleInitialEdges() error {
	if this.Len() != 0 {
		return fmt.Errorf("ScheduleInitialEdges: ready queue is not empty")
	}

	pools := map[*Pool]bool{}
	for edge, remaining := range this.edgeInputsReady_ {
		if remaining != 0 {
			continue
		}
		if this.want_[edge.outputs_[0]] != WantToStart {
			continue
		}

		this.want_[edge.outputs_[0]] = WantToFinish
		pool := edge.pool()
		if pool.ShouldDelayEdge() {
			pool.DelayEdge(edge)
			pools[pool] = true
		} else {
			pool.EdgeScheduled(edge)
			this.readyQueuePush(edge)
		}
	}

	for pool := range pools {
		pool.RetrieveReadyEdges(this)
	}
	return nil
}

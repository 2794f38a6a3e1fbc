package main

import "testing"

// buildTestPlan wires a tiny two-edge graph (foo.c -> foo.o -> out) through
// a real ManifestParser/DependencyScan/Plan, backed by an in-memory disk
// where every source exists and every output is missing, so both edges
// start out dirty and schedulable.
func buildTestPlan(t *testing.T) (*State, *Plan, *Node) {
	t.Helper()
	state := NewState()
	parser := NewManifestParser(state)
	manifest := `
rule cc
  command = cc $in -o $out

rule link
  command = ld $in -o $out

build foo.o: cc foo.c
build out: link foo.o
`
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	disk := newFakeDisk()
	disk.mtimes["foo.c"] = 1

	scan := NewDependencyScan(state, newFakeBuildLog(), newFakeDepsLog(), disk, &DepfileParserOptions{}, nil, false)
	plan := NewPlan(scan)

	out := state.LookupNode("out")
	var validations []*Node
	if err := scan.RecomputeDirty(out, &validations); err != nil {
		t.Fatalf("RecomputeDirty: %v", err)
	}
	if _, err := plan.AddTarget(out); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := plan.PrepareQueue([]*Node{out}); err != nil {
		t.Fatalf("PrepareQueue: %v", err)
	}
	return state, plan, out
}

func TestPlanSchedulesLeafEdgeFirst(t *testing.T) {
	_, plan, _ := buildTestPlan(t)

	edge, ok := plan.FindWork()
	if !ok {
		t.Fatal("expected ready work for foo.o's producing edge")
	}
	if len(edge.outputs_) != 1 || edge.outputs_[0].path() != "foo.o" {
		t.Fatalf("expected foo.o's edge to be ready first, got outputs %v", edge.outputs_)
	}

	if _, ok := plan.FindWork(); ok {
		t.Fatal("out's edge should not be ready until foo.o finishes")
	}
}

func TestPlanPropagatesReadinessOnFinish(t *testing.T) {
	_, plan, out := buildTestPlan(t)

	fooEdge, ok := plan.FindWork()
	if !ok {
		t.Fatal("expected foo.o's edge ready")
	}
	if err := plan.EdgeFinished(fooEdge, true); err != nil {
		t.Fatalf("EdgeFinished: %v", err)
	}

	linkEdge, ok := plan.FindWork()
	if !ok {
		t.Fatal("expected out's edge to become ready once foo.o finished")
	}
	if len(linkEdge.outputs_) != 1 || linkEdge.outputs_[0] != out {
		t.Fatalf("expected out's edge, got %v", linkEdge.outputs_)
	}

	if err := plan.EdgeFinished(linkEdge, true); err != nil {
		t.Fatalf("EdgeFinished: %v", err)
	}
	if plan.moreToDo() {
		t.Error("expected the plan to be done once both edges finished")
	}
}

func TestPlanFailedEdgeStopsDownstreamWork(t *testing.T) {
	_, plan, _ := buildTestPlan(t)

	fooEdge, ok := plan.FindWork()
	if !ok {
		t.Fatal("expected foo.o's edge ready")
	}
	if err := plan.EdgeFinished(fooEdge, false); err != nil {
		t.Fatalf("EdgeFinished: %v", err)
	}

	if _, ok := plan.FindWork(); ok {
		t.Error("a failed edge must not unblock its dependents")
	}
}

func TestPlanAddTargetOnAlreadyCleanGraphIsNoop(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild out.o: cc in.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	disk := newFakeDisk()
	disk.mtimes["in.c"] = 1
	disk.mtimes["out.o"] = 2 // newer than its input: not dirty

	target := state.LookupNode("out.o")

	buildLog := newFakeBuildLog()
	if err := buildLog.RecordCommand(target.in_edge(), 0, 1, 2); err != nil {
		t.Fatalf("RecordCommand: %v", err)
	}

	scan := NewDependencyScan(state, buildLog, newFakeDepsLog(), disk, &DepfileParserOptions{}, nil, false)
	plan := NewPlan(scan)

	var validations []*Node
	if err := scan.RecomputeDirty(target, &validations); err != nil {
		t.Fatalf("RecomputeDirty: %v", err)
	}
	if _, err := plan.AddTarget(target); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if plan.moreToDo() {
		t.Error("expected nothing to build for an already up-to-date graph")
	}
}

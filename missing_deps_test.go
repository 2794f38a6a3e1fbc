package main

import "testing"

type recordingDelegate struct {
	calls []string
}

func (d *recordingDelegate) OnMissingDep(node *Node, path string, generator *Rule) {
	d.calls = append(d.calls, path)
}

func TestMissingDependencyScannerFlagsUndeclaredDeps(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild foo.o: cc foo.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	foo := state.LookupNode("foo.o")
	staleHeader := state.GetNode("stale.h", 0)

	depsLog := newFakeDepsLog()
	depsLog.recorded[foo] = &Deps{Nodes: []*Node{staleHeader}}

	delegate := &recordingDelegate{}
	scanner := NewMissingDependencyScanner(delegate, depsLog, state, newFakeDisk())
	scanner.ProcessNode(foo)

	if !scanner.HadMissingDeps() {
		t.Fatal("expected the scanner to flag foo.o as having a missing dep")
	}
	if len(delegate.calls) != 1 || delegate.calls[0] != "stale.h" {
		t.Fatalf("got %v, want [stale.h]", delegate.calls)
	}
}

func TestMissingDependencyScannerIgnoresNodesWithoutHistory(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild foo.o: cc foo.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	scanner := NewMissingDependencyScanner(&recordingDelegate{}, newFakeDepsLog(), state, newFakeDisk())
	scanner.ProcessNode(state.LookupNode("foo.o"))

	if scanner.HadMissingDeps() {
		t.Error("a node with no deps-log history should never be flagged")
	}
}

func TestMissingDependencyScannerAgreesWithDeclaredInputs(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild foo.o: cc foo.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	foo := state.LookupNode("foo.o")
	depsLog := newFakeDepsLog()
	depsLog.recorded[foo] = &Deps{Nodes: []*Node{state.LookupNode("foo.c")}}

	scanner := NewMissingDependencyScanner(&recordingDelegate{}, depsLog, state, newFakeDisk())
	scanner.ProcessNode(foo)

	if scanner.HadMissingDeps() {
		t.Error("a deps-log entry matching declared inputs should not be flagged")
	}
}

package main

import "testing"

func TestStateRootNodesFallbackWhenNoDefaultsDeclared(t *testing.T) {
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

	nodes, err := state.DefaultNodes()
	if err != nil {
		t.Fatalf("DefaultNodes: %v", err)
	}
	if len(nodes) != 1 || nodes[0].path() != "out" {
		t.Fatalf("got %v, want [out] (the only node nothing else consumes)", nodes)
	}
}

func TestStateRootNodesWithNoEdgesIsEmpty(t *testing.T) {
	state := NewState()
	nodes, err := state.RootNodes()
	if err != nil {
		t.Fatalf("RootNodes: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected no root nodes for an empty graph, got %v", nodes)
	}
}

func TestStateAddDefaultRejectsUnknownTarget(t *testing.T) {
	state := NewState()
	if err := state.AddDefault("nonexistent"); err == nil {
		t.Fatal("expected an error for a target with no build statement")
	}
}

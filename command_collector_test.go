package main

import "testing"

func TestCommandCollectorOrdersDependenciesFirst(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	manifest := `
rule cc
  command = cc $in -o $out

rule link
  command = ld $in -o $out

build foo.o: cc foo.c
build bar.o: cc bar.c
build out: link foo.o bar.o
`
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	collector := NewCommandCollector()
	collector.CollectFrom(state.LookupNode("out"))

	edges := collector.Edges()
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}

	pos := map[string]int{}
	for i, e := range edges {
		pos[e.outputs_[0].path()] = i
	}
	if pos["foo.o"] >= pos["out"] || pos["bar.o"] >= pos["out"] {
		t.Errorf("expected foo.o and bar.o before out, got order %v", pos)
	}
}

func TestCommandCollectorSkipsPhonyEdges(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	manifest := `
rule cc
  command = cc $in -o $out

build foo.o: cc foo.c
build all: phony foo.o
`
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	collector := NewCommandCollector()
	collector.CollectFrom(state.LookupNode("all"))

	edges := collector.Edges()
	if len(edges) != 1 || edges[0].outputs_[0].path() != "foo.o" {
		t.Fatalf("expected only foo.o's edge, got %v", edges)
	}
}

func TestCommandCollectorDedupesSharedInputs(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	manifest := `
rule cc
  command = cc $in -o $out

rule link
  command = ld $in -o $out

build shared.o: cc shared.c
build a.out: link shared.o
build b.out: link shared.o
`
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	collector := NewCommandCollector()
	collector.CollectFrom(state.LookupNode("a.out"))
	collector.CollectFrom(state.LookupNode("b.out"))

	count := 0
	for _, e := range collector.Edges() {
		if e.outputs_[0].path() == "shared.o" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared.o's edge should appear once, got %d", count)
	}
}

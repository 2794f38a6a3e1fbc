package main

import "testing"

const testManifest = `
cflags = -Wall

pool link_pool
  depth = 2

rule cc
  command = gcc -c $in -o $out $cflags
  depfile = $out.d
  deps = gcc

rule link
  command = gcc -o $out $in

build foo.o: cc foo.c | foo.h
build bar.o: cc bar.c
build out: link foo.o bar.o
  pool = link_pool

default out
`

func parseTestManifest(t *testing.T) *State {
	t.Helper()
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse(testManifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return state
}

func TestManifestParserBuildsRulesAndEdges(t *testing.T) {
	state := parseTestManifest(t)

	fooO := state.LookupNode("foo.o")
	if fooO == nil {
		t.Fatal("expected node foo.o")
	}
	edge := fooO.in_edge()
	if edge == nil {
		t.Fatal("expected foo.o to have a producing edge")
	}
	if edge.rule().name() != "cc" {
		t.Errorf("rule = %q, want cc", edge.rule().name())
	}
	if got := edge.EvaluateCommand(false); got != "gcc -c foo.c -o foo.o -Wall" {
		t.Errorf("EvaluateCommand = %q", got)
	}
}

func TestManifestParserImplicitInput(t *testing.T) {
	state := parseTestManifest(t)
	fooO := state.LookupNode("foo.o")
	edge := fooO.in_edge()
	if edge.implicit_deps_ != 1 {
		t.Errorf("implicit_deps_ = %d, want 1", edge.implicit_deps_)
	}
	foundHeader := false
	for _, in := range edge.inputs_ {
		if in.path() == "foo.h" {
			foundHeader = true
		}
	}
	if !foundHeader {
		t.Error("expected foo.h among foo.o's inputs")
	}
}

func TestManifestParserPoolBinding(t *testing.T) {
	state := parseTestManifest(t)
	out := state.LookupNode("out")
	edge := out.in_edge()
	if edge.pool() == nil || edge.pool().name() != "link_pool" {
		t.Fatalf("expected out's edge to use link_pool, got %v", edge.pool())
	}
	if edge.pool().depth() != 2 {
		t.Errorf("pool depth = %d, want 2", edge.pool().depth())
	}
}

func TestManifestParserDefaultTargets(t *testing.T) {
	state := parseTestManifest(t)
	defaults, err := state.DefaultNodes()
	if err != nil {
		t.Fatalf("DefaultNodes: %v", err)
	}
	if len(defaults) != 1 || defaults[0].path() != "out" {
		t.Fatalf("got %v, want [out]", defaults)
	}
}

func TestManifestParserUnknownRuleFails(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	err := parser.Parse("build out.o: nonexistent in.c\n")
	if err == nil {
		t.Fatal("expected error referencing an undefined rule")
	}
}

func TestManifestParserVariableSubstitution(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	err := parser.Parse("cflags = -O2\nrule cc\n  command = gcc $cflags -c $in -o $out\nbuild out.o: cc in.c\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	edge := state.LookupNode("out.o").in_edge()
	if got := edge.EvaluateCommand(false); got != "gcc -O2 -c in.c -o out.o" {
		t.Errorf("EvaluateCommand = %q", got)
	}
}

func TestManifestParserPoolWithoutDepthDefaultsToZero(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	manifest := "pool serial\nrule cc\n  command = cc $in -o $out\nbuild out.o: cc in.c\n  pool = serial\n"
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	edge := state.LookupNode("out.o").in_edge()
	if edge.pool().depth() != 0 {
		t.Errorf("depth = %d, want 0 for a pool with no depth binding", edge.pool().depth())
	}
}

func TestManifestParserIgnoresFullLineComments(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	manifest := "# a leading comment\nrule cc\n  command = cc $in -o $out\n# another comment\nbuild out.o: cc in.c\n"
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if state.LookupNode("out.o") == nil {
		t.Fatal("expected out.o to be defined despite the surrounding comments")
	}
}

func TestManifestParserDefaultAcceptsMultipleTargets(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	manifest := "rule cc\n  command = cc $in -o $out\nbuild a.o: cc a.c\nbuild b.o: cc b.c\ndefault a.o b.o\n"
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defaults, err := state.DefaultNodes()
	if err != nil {
		t.Fatalf("DefaultNodes: %v", err)
	}
	if len(defaults) != 2 || defaults[0].path() != "a.o" || defaults[1].path() != "b.o" {
		t.Fatalf("got %v, want [a.o b.o]", defaults)
	}
}

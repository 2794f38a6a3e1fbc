package main

import "testing"

func setupDyndepGraph(t *testing.T) (*State, *fakeDisk) {
	t.Helper()
	state := NewState()
	parser := NewManifestParser(state)
	manifest := `
rule cc
  command = cc $in -o $out
build foo.o: cc foo.c
`
	if err := parser.Parse(manifest); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return state, newFakeDisk()
}

func TestDyndepParserLoadsInputsOutputsAndRestat(t *testing.T) {
	state, disk := setupDyndepGraph(t)
	disk.writes["build.dd"] = "version 1\nedge foo.o\n  restat true\n  in extra.h\n  out foo.o.d\n"

	ddf := DyndepFile{}
	parser := NewDyndepParser(state, disk)
	if err := parser.Parse("build.dd", ddf); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	edge := state.LookupNode("foo.o").in_edge()
	deps, ok := ddf[edge]
	if !ok {
		t.Fatal("expected an entry for foo.o's edge")
	}
	if !deps.restat {
		t.Error("expected restat to be true")
	}
	if len(deps.implicitInputs) != 1 || deps.implicitInputs[0].path() != "extra.h" {
		t.Errorf("got implicit inputs %v", deps.implicitInputs)
	}
	if len(deps.implicitOutputs) != 1 || deps.implicitOutputs[0].path() != "foo.o.d" {
		t.Errorf("got implicit outputs %v", deps.implicitOutputs)
	}
}

func TestDyndepParserRejectsMissingVersion(t *testing.T) {
	state, disk := setupDyndepGraph(t)
	disk.writes["build.dd"] = "edge foo.o\n  in extra.h\n"

	parser := NewDyndepParser(state, disk)
	if err := parser.Parse("build.dd", DyndepFile{}); err == nil {
		t.Fatal("expected an error for a missing version line")
	}
}

func TestDyndepParserRejectsUnknownEdge(t *testing.T) {
	state, disk := setupDyndepGraph(t)
	disk.writes["build.dd"] = "version 1\nedge nowhere.o\n"

	parser := NewDyndepParser(state, disk)
	if err := parser.Parse("build.dd", DyndepFile{}); err == nil {
		t.Fatal("expected an error for a build statement that does not exist")
	}
}

func TestDyndepParserRejectsMissingFile(t *testing.T) {
	state, disk := setupDyndepGraph(t)

	parser := NewDyndepParser(state, disk)
	if err := parser.Parse("missing.dd", DyndepFile{}); err == nil {
		t.Fatal("expected an error for a nonexistent dyndep file")
	}
}

func TestDyndepLoaderUpdatesEdgeGraph(t *testing.T) {
	state, disk := setupDyndepGraph(t)
	disk.writes["build.dd"] = "version 1\nedge foo.o\n  in extra.h\n  out foo.o.d\n"

	fooEdge := state.LookupNode("foo.o").in_edge()
	ddNode := state.GetNode("build.dd", 0)
	fooEdge.dyndep_ = ddNode
	ddNode.AddOutEdge(fooEdge)

	loader := NewDyndepLoader(state, disk, nil)
	if err := loader.LoadDyndepsInto(ddNode, &DyndepFile{}); err != nil {
		t.Fatalf("LoadDyndepsInto: %v", err)
	}

	if fooEdge.implicit_deps_ != 1 {
		t.Errorf("implicit_deps_ = %d, want 1", fooEdge.implicit_deps_)
	}
	if fooEdge.implicit_outs_ != 1 {
		t.Errorf("implicit_outs_ = %d, want 1", fooEdge.implicit_outs_)
	}

	foundInput, foundOutput := false, false
	for _, n := range fooEdge.inputs_ {
		if n.path() == "extra.h" {
			foundInput = true
		}
	}
	for _, n := range fooEdge.outputs_ {
		if n.path() == "foo.o.d" {
			foundOutput = true
		}
	}
	if !foundInput {
		t.Error("expected extra.h among foo.o's edge inputs")
	}
	if !foundOutput {
		t.Error("expected foo.o.d among foo.o's edge outputs")
	}
}

package main

import (
	"path/filepath"
	"testing"
)

func TestGormDepsLogRecordsAndRetrieves(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild foo.o: cc foo.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foo := state.LookupNode("foo.o")
	hdr := state.GetNode("foo.h", 0)

	path := filepath.Join(t.TempDir(), "deps.db")
	log, err := NewGormDepsLog(path, state)
	if err != nil {
		t.Fatalf("NewGormDepsLog: %v", err)
	}
	defer log.Close()

	if err := log.RecordDeps(foo, 42, []*Node{hdr}); err != nil {
		t.Fatalf("RecordDeps: %v", err)
	}

	deps := log.GetDeps(foo)
	if deps == nil {
		t.Fatal("expected deps to be recorded for foo.o")
	}
	if deps.Mtime != 42 {
		t.Errorf("Mtime = %d, want 42", deps.Mtime)
	}
	if len(deps.Nodes) != 1 || deps.Nodes[0] != hdr {
		t.Errorf("got nodes %v, want [foo.h]", deps.Nodes)
	}
}

func TestGormDepsLogOverwritesPriorRecord(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild foo.o: cc foo.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foo := state.LookupNode("foo.o")
	oldHdr := state.GetNode("old.h", 0)
	newHdr := state.GetNode("new.h", 0)

	path := filepath.Join(t.TempDir(), "deps.db")
	log, err := NewGormDepsLog(path, state)
	if err != nil {
		t.Fatalf("NewGormDepsLog: %v", err)
	}
	defer log.Close()

	if err := log.RecordDeps(foo, 1, []*Node{oldHdr}); err != nil {
		t.Fatalf("RecordDeps: %v", err)
	}
	if err := log.RecordDeps(foo, 2, []*Node{newHdr}); err != nil {
		t.Fatalf("RecordDeps (2nd): %v", err)
	}

	deps := log.GetDeps(foo)
	if deps.Mtime != 2 {
		t.Errorf("Mtime = %d, want 2", deps.Mtime)
	}
	if len(deps.Nodes) != 1 || deps.Nodes[0] != newHdr {
		t.Errorf("expected only new.h after overwrite, got %v", deps.Nodes)
	}
}

func TestGormDepsLogPersistsAcrossReopen(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild foo.o: cc foo.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foo := state.LookupNode("foo.o")
	hdr := state.GetNode("foo.h", 0)

	path := filepath.Join(t.TempDir(), "deps.db")
	log, err := NewGormDepsLog(path, state)
	if err != nil {
		t.Fatalf("NewGormDepsLog: %v", err)
	}
	if err := log.RecordDeps(foo, 7, []*Node{hdr}); err != nil {
		t.Fatalf("RecordDeps: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewGormDepsLog(path, state)
	if err != nil {
		t.Fatalf("reopen NewGormDepsLog: %v", err)
	}
	defer reopened.Close()

	deps := reopened.GetDeps(foo)
	if deps == nil || deps.Mtime != 7 {
		t.Fatalf("expected foo.o's deps to survive a reopen, got %+v", deps)
	}
}

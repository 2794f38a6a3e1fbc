package main

import "testing"

func TestElideMiddleShortStringUnchanged(t *testing.T) {
	if got := elideMiddle("short", 80); got != "short" {
		t.Errorf("elideMiddle(short) = %q, want unchanged", got)
	}
}

func TestElideMiddleTrimsToWidth(t *testing.T) {
	s := "aaaaaaaaaabbbbbbbbbbccccccccccddddddddddeeeeeeeeeeffffffffffgggggggggghhhhhhhhhh"
	got := elideMiddle(s, 20)
	if len(got) != 20 {
		t.Fatalf("elideMiddle result length = %d, want 20", len(got))
	}
	if got[:1] != "a" || got[len(got)-1:] != "h" {
		t.Errorf("expected head and tail preserved, got %q", got)
	}
}

func TestElideMiddleTinyWidth(t *testing.T) {
	if got := elideMiddle("abcdef", 2); got != "ab" {
		t.Errorf("elideMiddle with width<4 should hard-truncate, got %q", got)
	}
}

func TestLinePrinterBuffersWhileConsoleLocked(t *testing.T) {
	lp := &LinePrinter{have_blank_line_: true}
	lp.SetConsoleLocked(true)

	lp.Print("building foo.o", FULL)
	if lp.line_buffer_ != "building foo.o" {
		t.Fatalf("expected the line to be buffered while locked, got %q", lp.line_buffer_)
	}

	lp.SetConsoleLocked(false)
	if lp.console_locked_ {
		t.Fatal("expected console_locked_ to clear")
	}
	if lp.line_buffer_ != "" {
		t.Errorf("expected the buffer to be flushed on unlock, got %q", lp.line_buffer_)
	}
}

func TestLinePrinterSetConsoleLockedIsIdempotent(t *testing.T) {
	lp := &LinePrinter{have_blank_line_: true}
	lp.SetConsoleLocked(true)
	lp.output_buffer_ = "queued"
	lp.SetConsoleLocked(true) // already locked: must be a no-op
	if lp.output_buffer_ != "queued" {
		t.Errorf("expected the buffer untouched by a redundant lock call, got %q", lp.output_buffer_)
	}
}

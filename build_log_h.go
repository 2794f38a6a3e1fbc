package main

import "lukechampine.com/uint128"

// BuildLog is the persisted record of past command invocations: for each
// output, the hash of the command line that last produced it and the
// mtime that output had right after that build. DependencyScan consults
// it (via RecomputeOutputsDirty) to tell a stale output from a changed
// command line without re-running anything (§4.2, §6). It is an external
// collaborator: Plan and Builder never see a concrete implementation,
// only this interface.
type BuildLog interface {
	LookupByOutput(path string) *LogEntry
	RecordCommand(edge *Edge, startTimeMillis, endTimeMillis int, mtime TimeStamp) error
	Close() error
}

type LogEntry struct {
	Output      string
	CommandHash uint128.Uint128
	StartTime   int
	EndTime     int
	Mtime       TimeStamp
}

package main

// fakeDisk is an in-memory DiskInterface for tests: paths listed in
// mtimes exist with that timestamp, everything else is NotFound.
type fakeDisk struct {
	mtimes map[string]TimeStamp
	writes map[string]string
	made   map[string]bool
	removed map[string]bool
}

func newFakeDisk() *fakeDisk {
	return &fakeDisk{
		mtimes:  map[string]TimeStamp{},
		writes:  map[string]string{},
		made:    map[string]bool{},
		removed: map[string]bool{},
	}
}

func (d *fakeDisk) ReadFile(path string) (string, StatusEnum, error) {
	if content, ok := d.writes[path]; ok {
		return content, Okay, nil
	}
	return "", NotFound, nil
}

func (d *fakeDisk) Stat(path string) (TimeStamp, error) {
	if mt, ok := d.mtimes[path]; ok {
		return mt, nil
	}
	return 0, nil
}

func (d *fakeDisk) WriteFile(path string, contents string) error {
	d.writes[path] = contents
	return nil
}

func (d *fakeDisk) MakeDirs(path string) error {
	d.made[path] = true
	return nil
}

func (d *fakeDisk) RemoveFile(path string) error {
	delete(d.mtimes, path)
	delete(d.writes, path)
	d.removed[path] = true
	return nil
}

// fakeDepsLog is a map-backed DepsLog fake: RecordDeps stores the deps per
// node and GetDeps returns them, enough to let DependencyScan run without
// a real journal.
type fakeDepsLog struct {
	recorded map[*Node]*Deps
}

func newFakeDepsLog() *fakeDepsLog {
	return &fakeDepsLog{recorded: map[*Node]*Deps{}}
}

func (l *fakeDepsLog) GetDeps(node *Node) *Deps {
	return l.recorded[node]
}

func (l *fakeDepsLog) RecordDeps(node *Node, mtime TimeStamp, nodes []*Node) error {
	l.recorded[node] = &Deps{Mtime: mtime, Nodes: nodes}
	return nil
}

func (l *fakeDepsLog) Close() error { return nil }

// fakeBuildLog is a BuildLog fake backed by a plain map: every output not
// present in entries is treated as never having been built, matching
// ninja's own "no prior record means dirty" rule.
type fakeBuildLog struct {
	entries map[string]*LogEntry
}

func newFakeBuildLog() *fakeBuildLog { return &fakeBuildLog{entries: map[string]*LogEntry{}} }

func (l *fakeBuildLog) LookupByOutput(path string) *LogEntry { return l.entries[path] }
func (l *fakeBuildLog) RecordCommand(edge *Edge, startTimeMillis, endTimeMillis int, mtime TimeStamp) error {
	for _, o := range edge.outputs_ {
		l.entries[o.path()] = &LogEntry{
			Output:      o.path(),
			CommandHash: HashCommand(edge.EvaluateCommand(true)),
			StartTime:   startTimeMillis,
			EndTime:     endTimeMillis,
			Mtime:       mtime,
		}
	}
	return nil
}
func (l *fakeBuildLog) Close() error { return nil }

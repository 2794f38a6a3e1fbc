package main

import "testing"

// fakeCommandRunner completes every command immediately with a fixed
// status, so Builder.Build can run its full loop without a real
// subprocess layer (§6 lists the subprocess layer as an external
// collaborator).
type fakeCommandRunner struct {
	pending []*Edge
	active  []*Edge
	status  ExitStatus
	started []*Edge
}

func newFakeCommandRunner(status ExitStatus) *fakeCommandRunner {
	return &fakeCommandRunner{status: status}
}

func (r *fakeCommandRunner) CanRunMore() int { return 1 << 30 }

func (r *fakeCommandRunner) StartCommand(edge *Edge) error {
	r.started = append(r.started, edge)
	r.pending = append(r.pending, edge)
	r.active = append(r.active, edge)
	return nil
}

func (r *fakeCommandRunner) WaitForCommand() (*CommandRunnerResult, bool) {
	if len(r.pending) == 0 {
		return nil, false
	}
	edge := r.pending[0]
	r.pending = r.pending[1:]
	for i, e := range r.active {
		if e == edge {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
	return &CommandRunnerResult{Edge: edge, Status: r.status}, true
}

func (r *fakeCommandRunner) GetActiveEdges() []*Edge { return r.active }
func (r *fakeCommandRunner) Abort()                  { r.active = nil; r.pending = nil }

// fakeStatus is a no-op Status so Builder can run without a real
// terminal reporter (§6 excludes status/UI from this build core).
type fakeStatus struct {
	explanations *Explanations
	started      []*Edge
	finished     []*Edge
}

func (s *fakeStatus) EdgeAddedToPlan(edge *Edge)     {}
func (s *fakeStatus) EdgeRemovedFromPlan(edge *Edge) {}
func (s *fakeStatus) PlanHasTotalEdges(total int)    {}
func (s *fakeStatus) BuildEdgeStarted(edge *Edge, startTimeMillis int64) {
	s.started = append(s.started, edge)
}
func (s *fakeStatus) BuildEdgeFinished(edge *Edge, startTimeMillis, endTimeMillis int64, success bool, output string) {
	s.finished = append(s.finished, edge)
}
func (s *fakeStatus) BuildLoadDyndeps(node *Node)                     {}
func (s *fakeStatus) BuildStarted()                                   {}
func (s *fakeStatus) BuildFinished()                                  {}
func (s *fakeStatus) SetExplanations(explanations *Explanations)      { s.explanations = explanations }
func (s *fakeStatus) Info(msg string, args ...interface{})            {}
func (s *fakeStatus) Warning(msg string, args ...interface{})         {}
func (s *fakeStatus) Error(msg string, args ...interface{})           {}
func (s *fakeStatus) ReleaseStatus()                                  {}

func buildTestBuilder(t *testing.T) (*Builder, *fakeCommandRunner) {
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

	config := NewBuildConfig()
	config.verbosity = QUIET
	builder := NewBuilder(state, config, newFakeBuildLog(), newFakeDepsLog(), disk, &fakeStatus{}, 0, false)

	runner := newFakeCommandRunner(ExitSuccess)
	builder.command_runner_ = runner
	return builder, runner
}

func TestBuilderRunsEdgesInDependencyOrder(t *testing.T) {
	builder, runner := buildTestBuilder(t)

	out, err := builder.AddTargetByName("out")
	if err != nil {
		t.Fatalf("AddTargetByName: %v", err)
	}
	if builder.AlreadyUpToDate() {
		t.Fatal("expected work to do")
	}

	if err := builder.Build([]*Node{out}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(runner.started) != 2 {
		t.Fatalf("expected 2 commands started, got %d", len(runner.started))
	}
	if runner.started[0].outputs_[0].path() != "foo.o" {
		t.Errorf("expected foo.o to be built before out, got %s first", runner.started[0].outputs_[0].path())
	}
	if runner.started[1].outputs_[0] != out {
		t.Errorf("expected out's edge to run second, got %v", runner.started[1].outputs_)
	}
}

func TestBuilderAlreadyUpToDateSkipsBuild(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild out.o: cc in.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	disk := newFakeDisk()
	disk.mtimes["in.c"] = 1
	disk.mtimes["out.o"] = 2

	target := state.LookupNode("out.o")
	buildLog := newFakeBuildLog()
	if err := buildLog.RecordCommand(target.in_edge(), 0, 1, 2); err != nil {
		t.Fatalf("RecordCommand: %v", err)
	}

	config := NewBuildConfig()
	builder := NewBuilder(state, config, buildLog, newFakeDepsLog(), disk, &fakeStatus{}, 0, false)

	if _, err := builder.AddTargetByName("out.o"); err != nil {
		t.Fatalf("AddTargetByName: %v", err)
	}
	if !builder.AlreadyUpToDate() {
		t.Fatal("expected the graph to already be up to date")
	}
	if err := builder.Build([]*Node{target}); err == nil {
		t.Fatal("expected Build to refuse to run when already up to date")
	}
}

func TestBuilderPropagatesCommandFailure(t *testing.T) {
	state := NewState()
	parser := NewManifestParser(state)
	if err := parser.Parse("rule cc\n  command = cc $in -o $out\nbuild out.o: cc in.c\n"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	disk := newFakeDisk()
	disk.mtimes["in.c"] = 1

	config := NewBuildConfig()
	builder := NewBuilder(state, config, newFakeBuildLog(), newFakeDepsLog(), disk, &fakeStatus{}, 0, false)
	builder.command_runner_ = newFakeCommandRunner(ExitFailure)

	target, err := builder.AddTargetByName("out.o")
	if err != nil {
		t.Fatalf("AddTargetByName: %v", err)
	}
	if err := builder.Build([]*Node{target}); err == nil {
		t.Fatal("expected Build to report a failed command")
	}
}

func TestBuilderRunsPhonyEdgesInline(t *testing.T) {
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

	disk := newFakeDisk()
	disk.mtimes["foo.c"] = 1

	config := NewBuildConfig()
	builder := NewBuilder(state, config, newFakeBuildLog(), newFakeDepsLog(), disk, &fakeStatus{}, 0, false)
	runner := newFakeCommandRunner(ExitSuccess)
	builder.command_runner_ = runner

	all, err := builder.AddTargetByName("all")
	if err != nil {
		t.Fatalf("AddTargetByName: %v", err)
	}
	if err := builder.Build([]*Node{all}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(runner.started) != 1 {
		t.Fatalf("expected only foo.o's real command to be started, got %d", len(runner.started))
	}
}

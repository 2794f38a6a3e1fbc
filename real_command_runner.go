package main

import (
	"path/filepath"
	"strings"

	"github.com/mikoim/go-loadavg"
	"github.com/tevino/abool/v2"
)

// RealCommandRunner drives an OS subprocess per started edge, refusing to
// start more work once either config.parallelism in-flight commands are
// running or the system load average exceeds config.max_load_average
// (§4.3, §6 CommandRunner).
type RealCommandRunner struct {
	config_   *BuildConfig
	subprocs_ *SubprocessSet
	edges_    map[*Subprocess]*Edge
	aborted_  *abool.AtomicBool
}

func NewRealCommandRunner(config *BuildConfig) *RealCommandRunner {
	return &RealCommandRunner{
		config_:   config,
		subprocs_: NewSubprocessSet(),
		edges_:    map[*Subprocess]*Edge{},
		aborted_:  abool.NewBool(false),
	}
}

// EdgeLabel shortens a rule name for use in failure summaries and per-rule
// log file names: any `___`-suffixed tail is dropped first, then whatever
// remains up to and including its last underscore, leaving a short stable
// identifier rather than a fully mangled rule name.
func EdgeLabel(edge *Edge) string {
	name := edge.rule().name()
	if idx := strings.LastIndex(name, "___"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "_"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// CanRunMore reports how many additional commands may start right now:
// the tighter of the parallelism headroom and the load-average headroom,
// never negative — except that if that comes out zero while nothing is
// currently running, it returns 1 anyway so the build can always make
// forward progress (§4.3 can_run_more).
func (this *RealCommandRunner) CanRunMore() int {
	if this.aborted_.IsSet() {
		return 0
	}

	capacity := 1 << 30
	if this.config_.parallelism > 0 {
		capacity = this.config_.parallelism - this.subprocs_.RunningCount()
	}

	if this.config_.max_load_average > 0 {
		if avg, err := loadavg.Parse(); err == nil {
			loadCapacity := int(this.config_.max_load_average - avg.LoadAverage1)
			if loadCapacity < capacity {
				capacity = loadCapacity
			}
		}
	}

	if capacity < 0 {
		capacity = 0
	}
	if capacity == 0 && this.subprocs_.RunningCount() == 0 {
		capacity = 1
	}
	return capacity
}

func (this *RealCommandRunner) StartCommand(edge *Edge) error {
	command := edge.EvaluateCommand(false)

	logFilePath := ""
	if this.config_.logfiles_enabled && this.config_.logs_dir != "" {
		logFilePath = filepath.Join(this.config_.logs_dir, EdgeLabel(edge)+".log")
	}

	sp, err := this.subprocs_.Add(command, edge.use_console(), this.config_.enable_bufferization, logFilePath)
	if err != nil {
		return err
	}
	this.edges_[sp] = edge
	return nil
}

func (this *RealCommandRunner) WaitForCommand() (*CommandRunnerResult, bool) {
	sp := this.subprocs_.NextFinished()
	if sp == nil {
		return nil, false
	}
	edge := this.edges_[sp]
	delete(this.edges_, sp)

	result := &CommandRunnerResult{
		Edge:      edge,
		Status:    sp.Finish(),
		StartTime: sp.StartTimeMillis(),
		EndTime:   sp.EndTimeMillis(),
	}
	if this.config_.enable_bufferization {
		result.Output = sp.GetOutput()
	}
	if !result.success() {
		result.Label = EdgeLabel(edge)
	}
	return result, true
}

func (this *RealCommandRunner) GetActiveEdges() []*Edge {
	edges := make([]*Edge, 0, len(this.edges_))
	for _, e := range this.edges_ {
		edges = append(edges, e)
	}
	return edges
}

func (this *RealCommandRunner) Abort() {
	this.aborted_.Set()
	this.subprocs_.Clear()
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewBuilder wires state, config, the two journals and disk access into a
// ready-to-run Builder (§4.4). Explanations are only allocated when the
// caller passes true for explain, mirroring the teacher's `-d explain`
// gate.
func NewBuilder(state *State, config *BuildConfig, buildLog BuildLog, depsLog DepsLog,
	disk DiskInterface, status Status, startTimeMillis int64, explain bool) *Builder {
	this := &Builder{
		state_:              state,
		config_:             config,
		status_:             status,
		start_time_millis_:  startTimeMillis,
		disk_interface_:     disk,
		running_edges_:      RunningEdgeMap{},
		lock_file_path_:     ".build_lock",
	}
	if explain {
		this.explanations_ = NewExplanations()
	}
	this.scan_ = NewDependencyScan(state, buildLog, depsLog, disk, &config.depfile_parser_options, this.explanations_, config.skip_check_timestamp)
	this.plan_ = NewPlan(this.scan_)
	this.plan_.SetStatus(status)
	this.plan_.SetDyndepLoader(this)
	if buildDir := state.bindings_.LookupVariable("builddir"); buildDir != "" {
		this.lock_file_path_ = buildDir + "/" + this.lock_file_path_
	}
	if config.logfiles_enabled && config.logs_dir != "" {
		os.MkdirAll(config.logs_dir, 0o755)
	}
	this.status_.SetExplanations(this.explanations_)
	return this
}

func (this *Builder) Release() {
	this.Cleanup()
	this.status_.SetExplanations(nil)
}

// Cleanup aborts the command runner and, for every edge still running,
// deletes each output whose mtime changed since the scan (every output,
// if the edge has a depfile) and the depfile itself, so a half-written
// file is never mistaken for a finished one; it then removes the build
// lock file (§4.4).
func (this *Builder) Cleanup() {
	if this.command_runner_ == nil {
		return
	}
	activeEdges := this.command_runner_.GetActiveEdges()
	this.command_runner_.Abort()

	for _, e := range activeEdges {
		depfile := e.GetUnescapedDepfile()
		for _, o := range e.outputs_ {
			newMtime, err := this.disk_interface_.Stat(o.path())
			if err != nil {
				this.status_.Error("%s", err)
			}
			if depfile != "" || o.mtime() != newMtime {
				this.disk_interface_.RemoveFile(o.path())
			}
		}
		if depfile != "" {
			this.disk_interface_.RemoveFile(depfile)
		}
	}

	if mtime, err := this.disk_interface_.Stat(this.lock_file_path_); err == nil && mtime > 0 {
		this.disk_interface_.RemoveFile(this.lock_file_path_)
	}
}

// AddTargetByName resolves name to a node and adds it to the plan.
func (this *Builder) AddTargetByName(name string) (*Node, error) {
	node := this.state_.LookupNode(name)
	if node == nil {
		return nil, fmt.Errorf("unknown target: '%s'", name)
	}
	if err := this.AddTarget(node); err != nil {
		return nil, err
	}
	return node, nil
}

// AddTarget scans target's dependencies and, if it or anything it needs
// is dirty, marks it wanted in the plan (§4.4).
func (this *Builder) AddTarget(target *Node) error {
	var validationNodes []*Node
	if err := this.scan_.RecomputeDirty(target, &validationNodes); err != nil {
		return err
	}

	inEdge := target.in_edge()
	if inEdge == nil || !inEdge.outputs_ready() {
		if _, err := this.plan_.AddTarget(target); err != nil {
			return err
		}
	}

	for _, n := range validationNodes {
		if ve := n.in_edge(); ve != nil && !ve.outputs_ready() {
			if _, err := this.plan_.AddTarget(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (this *Builder) AlreadyUpToDate() bool {
	return !this.plan_.moreToDo()
}

// Build runs the plan/command-runner steady-state loop until every
// wanted edge has finished, a failure budget is exhausted, or the build
// truly cannot make further progress (§4.4).
func (this *Builder) Build(targets []*Node) error {
	if this.AlreadyUpToDate() {
		return fmt.Errorf("already up to date")
	}
	if err := this.plan_.PrepareQueue(targets); err != nil {
		return err
	}
	this.status_.PlanHasTotalEdges(this.plan_.CommandEdgeCount())

	pendingCommands := 0
	failuresAllowed := this.config_.failures_allowed
	var failedEdges []string

	if this.command_runner_ == nil {
		if this.config_.dry_run {
			this.command_runner_ = NewDryRunCommandRunner()
		} else {
			this.command_runner_ = NewRealCommandRunner(this.config_)
		}
	}

	this.status_.BuildStarted()

	for this.plan_.moreToDo() {
		if failuresAllowed > 0 {
			capacity := this.command_runner_.CanRunMore()
			for capacity > 0 {
				edge, ok := this.plan_.FindWork()
				if !ok {
					break
				}

				if edge.GetBindingBool("generator") {
					if bl := this.scan_.build_log(); bl != nil {
						bl.Close()
					}
				}

				if err := this.StartEdge(edge); err != nil {
					this.Cleanup()
					this.status_.BuildFinished()
					return err
				}

				if edge.is_phony() {
					if err := this.plan_.EdgeFinished(edge, true); err != nil {
						this.Cleanup()
						this.status_.BuildFinished()
						return err
					}
				} else {
					pendingCommands++
					capacity--
					if more := this.command_runner_.CanRunMore(); more < capacity {
						capacity = more
					}
				}
			}

			if pendingCommands == 0 && !this.plan_.moreToDo() {
				break
			}
		}

		if pendingCommands > 0 {
			result, ok := this.command_runner_.WaitForCommand()
			if !ok || result.Status == ExitInterrupted {
				this.Cleanup()
				this.status_.BuildFinished()
				return fmt.Errorf("interrupted by user")
			}

			pendingCommands--
			if err := this.FinishCommand(result); err != nil {
				this.Cleanup()
				this.status_.BuildFinished()
				return err
			}

			if result.Status != ExitSuccess {
				if result.Label != "" {
					failedEdges = append(failedEdges, result.Label)
				}
				if failuresAllowed > 0 {
					failuresAllowed--
				}
			}
			continue
		}

		this.status_.BuildFinished()
		if failuresAllowed == 0 {
			this.writeFailedParts(failedEdges)
			return this.failureError(failedEdges)
		}
		if failuresAllowed < this.config_.failures_allowed {
			return fmt.Errorf("cannot make progress due to previous errors")
		}
		return fmt.Errorf("stuck: no ready work and no pending commands")
	}

	this.status_.BuildFinished()
	return nil
}

// failureError formats the §4.5 failure summary: a plain message when no
// edge produced a usable label, otherwise every failed label enumerated.
func (this *Builder) failureError(failedEdges []string) error {
	if len(failedEdges) == 0 {
		if this.config_.failures_allowed > 1 {
			return fmt.Errorf("subcommands failed")
		}
		return fmt.Errorf("subcommand failed")
	}
	if len(failedEdges) == 1 {
		return fmt.Errorf("subcommand failed: %s", failedEdges[0])
	}
	return fmt.Errorf("subcommands failed: %s", strings.Join(failedEdges, ", "))
}

// writeFailedParts records every failed edge's label, space-joined, to
// logs_dir/failed_parts when per-rule logging is enabled, so a caller can
// script re-running just the parts that broke (§4.5).
func (this *Builder) writeFailedParts(failedEdges []string) {
	if !this.config_.logfiles_enabled || this.config_.logs_dir == "" || len(failedEdges) == 0 {
		return
	}
	path := filepath.Join(this.config_.logs_dir, "failed_parts")
	this.disk_interface_.WriteFile(path, strings.Join(failedEdges, " "))
}

// StartEdge hands a single ready, non-phony edge to the command runner,
// preparing its output directories, lock-file mtime baseline, depfile
// directory and response file first (§4.3, §4.4).
func (this *Builder) StartEdge(edge *Edge) error {
	if edge.is_phony() {
		return nil
	}

	startTimeMillis := GetTimeMillis() - this.start_time_millis_
	this.running_edges_[edge] = startTimeMillis
	this.status_.BuildEdgeStarted(edge, startTimeMillis)

	var buildStart TimeStamp = -1
	if this.config_.dry_run {
		buildStart = 0
	}

	for _, o := range edge.outputs_ {
		if err := this.disk_interface_.MakeDirs(o.path()); err != nil {
			return err
		}
		if buildStart == -1 {
			this.disk_interface_.WriteFile(this.lock_file_path_, "")
			mtime, err := this.disk_interface_.Stat(this.lock_file_path_)
			if err != nil {
				buildStart = 0
			} else {
				buildStart = mtime
			}
		}
	}
	edge.command_start_time_ = buildStart

	if depfile := edge.GetUnescapedDepfile(); depfile != "" {
		if err := this.disk_interface_.MakeDirs(depfile); err != nil {
			return err
		}
	}

	if rspfile := edge.GetUnescapedRspfile(); rspfile != "" {
		content := edge.GetBinding("rspfile_content")
		if err := this.disk_interface_.WriteFile(rspfile, content); err != nil {
			return err
		}
	}

	if err := this.command_runner_.StartCommand(edge); err != nil {
		return fmt.Errorf("command '%s' failed: %w", edge.EvaluateCommand(true), err)
	}
	return nil
}

// FinishCommand extracts a finished edge's discovered dependencies,
// restats its outputs when the rule asks for it, and journals the result
// to BuildLog/DepsLog (§4.4, §4.5).
func (this *Builder) FinishCommand(result *CommandRunnerResult) error {
	edge := result.Edge

	var depsNodes []*Node
	depsType := edge.GetBinding("deps")
	if depsType != "" {
		nodes, extractErr := this.ExtractDeps(result, depsType)
		if extractErr != nil && result.Status == ExitSuccess {
			if result.Output != "" {
				result.Output += "\n"
			}
			result.Output += extractErr.Error()
			result.Status = ExitFailure
		} else {
			depsNodes = nodes
		}
	}

	startTimeMillis := this.running_edges_[edge]
	endTimeMillis := GetTimeMillis() - this.start_time_millis_
	delete(this.running_edges_, edge)

	this.status_.BuildEdgeFinished(edge, startTimeMillis, endTimeMillis, result.Status == ExitSuccess, result.Output)

	if result.Status != ExitSuccess {
		return this.plan_.EdgeFinished(edge, false)
	}

	var recordMtime TimeStamp
	if !this.config_.dry_run {
		restat := edge.GetBindingBool("restat")
		generator := edge.GetBindingBool("generator")
		nodeCleaned := false
		recordMtime = edge.command_start_time_

		if recordMtime == 0 || restat || generator {
			for _, o := range edge.outputs_ {
				newMtime, err := this.disk_interface_.Stat(o.path())
				if err != nil {
					return err
				}
				if newMtime > recordMtime {
					recordMtime = newMtime
				}
				if o.mtime() == newMtime && restat {
					if _, err := this.plan_.CleanNode(o); err != nil {
						return err
					}
					nodeCleaned = true
				}
			}
		}
		if nodeCleaned {
			recordMtime = edge.command_start_time_
		}
		if nodeCleaned {
			this.status_.PlanHasTotalEdges(this.plan_.CommandEdgeCount())
		}
	}

	if err := this.plan_.EdgeFinished(edge, true); err != nil {
		return err
	}

	if rspfile := edge.GetUnescapedRspfile(); rspfile != "" {
		this.disk_interface_.RemoveFile(rspfile)
	}

	if bl := this.scan_.build_log(); bl != nil {
		if err := bl.RecordCommand(edge, int(startTimeMillis), int(endTimeMillis), recordMtime); err != nil {
			return fmt.Errorf("writing to build log: %w", err)
		}
	}

	if depsType != "" && !this.config_.dry_run {
		dl := this.scan_.deps_log()
		for _, o := range edge.outputs_ {
			depsMtime, err := this.disk_interface_.Stat(o.path())
			if err != nil {
				return err
			}
			if dl != nil {
				if err := dl.RecordDeps(o, depsMtime, depsNodes); err != nil {
					return fmt.Errorf("writing to deps log: %w", err)
				}
			}
		}
	}
	return nil
}

func (this *Builder) SetBuildLog(log BuildLog) {
	this.scan_.set_build_log(log)
}

// ExtractDeps parses whatever dependency information a finished command
// produced (currently only the "gcc"-style depfile convention; MSVC's
// /showIncludes parsing is out of scope for this build core).
func (this *Builder) ExtractDeps(result *CommandRunnerResult, depsType string) ([]*Node, error) {
	if depsType != "gcc" {
		return nil, fmt.Errorf("unknown deps type '%s'", depsType)
	}

	depfile := result.Edge.GetUnescapedDepfile()
	if depfile == "" {
		return nil, fmt.Errorf("edge with deps=gcc but no depfile makes no sense")
	}

	content, status, err := this.disk_interface_.ReadFile(depfile)
	switch status {
	case Okay:
	case NotFound:
		return nil, nil
	default:
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	parser := NewDepfileParser(this.config_.depfile_parser_options)
	ins, err := parser.Parse(content)
	if err != nil {
		return nil, err
	}

	nodes := make([]*Node, 0, len(ins))
	for _, in := range ins {
		canon, slashBits := CanonicalizePath(in)
		nodes = append(nodes, this.state_.GetNode(canon, slashBits))
	}

	if err := this.disk_interface_.RemoveFile(depfile); err != nil {
		return nil, fmt.Errorf("deleting depfile: %w", err)
	}

	return nodes, nil
}

// LoadDyndeps applies node's dyndep information to the graph and folds
// the result into the plan (§4.2 dyndep incorporation).
func (this *Builder) LoadDyndeps(node *Node) error {
	this.status_.BuildLoadDyndeps(node)
	ddf, err := this.scan_.LoadDyndeps(node)
	if err != nil {
		return err
	}
	if err := this.plan_.DyndepsLoaded(node, ddf); err != nil {
		return err
	}
	this.status_.PlanHasTotalEdges(this.plan_.CommandEdgeCount())
	return nil
}

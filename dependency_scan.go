package main

import "fmt"

func NewDependencyScan(state *State, build_log BuildLog, deps_log DepsLog, disk DiskInterface,
	depfile_opts *DepfileParserOptions, explanations *Explanations, skipCheckTimestamp bool) *DependencyScan {
	return &DependencyScan{
		build_log_:      build_log,
		deps_log_:       deps_log,
		disk_interface_: disk,
		dep_loader_: &ImplicitDepLoader{
			state_:                  state,
			disk_interface_:         disk,
			deps_log_:               deps_log,
			depfile_parser_options_: depfile_opts,
			explanations_:           explanations,
		},
		dyndep_loader_:        &DyndepLoader{state_: state, disk_interface_: disk},
		explanations_:         explanations,
		skip_check_timestamp_: skipCheckTimestamp,
	}
}

func (this *DependencyScan) build_log() BuildLog        { return this.build_log_ }
func (this *DependencyScan) set_build_log(log BuildLog) { this.build_log_ = log }
func (this *DependencyScan) deps_log() DepsLog          { return this.deps_log_ }

// RecomputeDirty updates the dirty state of node and its transitive inputs.
// Any validation nodes discovered along the way are appended to
// validationNodes and revisited in turn, since RecomputeNodeDirty may
// surface new ones each pass (§6 DependencyScan.recompute_dirty).
func (this *DependencyScan) RecomputeDirty(node *Node, validationNodes *[]*Node) error {
	queue := []*Node{node}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		var stack []*Node
		var newValidation []*Node
		if err := this.recomputeNodeDirty(n, &stack, &newValidation); err != nil {
			return err
		}
		queue = append(queue, newValidation...)
		if validationNodes != nil {
			*validationNodes = append(*validationNodes, newValidation...)
		}
	}
	return nil
}

func (this *DependencyScan) recordExplanation(node *Node, format string, args ...interface{}) {
	if this.explanations_ != nil {
		this.explanations_.Record(node, fmt.Sprintf(format, args...))
	}
}

func (this *DependencyScan) recomputeNodeDirty(node *Node, stack *[]*Node, validationNodes *[]*Node) error {
	edge := node.in_edge()
	if edge == nil {
		if node.status_known() {
			return nil
		}
		if err := node.StatIfNecessary(this.disk_interface_); err != nil {
			return err
		}
		if !node.exists() {
			this.recordExplanation(node, "%s has no in-edge and is missing", node.path())
		}
		node.set_dirty(!node.exists())
		return nil
	}

	if edge.mark_ == VisitDone {
		return nil
	}

	if err := this.verifyDAG(node, *stack); err != nil {
		return err
	}

	edge.mark_ = VisitInStack
	*stack = append(*stack, node)

	dirty := false
	edge.outputs_ready_ = true
	edge.deps_missing_ = false

	if !edge.deps_loaded_ {
		if edge.dyndep_ != nil && edge.dyndep_.dyndep_pending() {
			if err := this.recomputeNodeDirty(edge.dyndep_, stack, validationNodes); err != nil {
				return err
			}
			if edge.dyndep_.in_edge() == nil || edge.dyndep_.in_edge().outputs_ready() {
				if _, err := this.LoadDyndeps(edge.dyndep_); err != nil {
					return err
				}
			}
		}
	}

	for _, out := range edge.outputs_ {
		if err := out.StatIfNecessary(this.disk_interface_); err != nil {
			return err
		}
	}

	if !edge.deps_loaded_ {
		edge.deps_loaded_ = true
		if err := this.dep_loader_.LoadDeps(edge); err != nil {
			return err
		}
		if edge.deps_missing_ {
			dirty = true
		}
	}

	*validationNodes = append(*validationNodes, edge.validations_...)

	var mostRecentInput *Node
	for i, in := range edge.inputs_ {
		if err := this.recomputeNodeDirty(in, stack, validationNodes); err != nil {
			return err
		}
		if inEdge := in.in_edge(); inEdge != nil && !inEdge.outputs_ready_ {
			edge.outputs_ready_ = false
		}
		if !edge.is_order_only(i) {
			if in.dirty() {
				this.recordExplanation(node, "%s is dirty", in.path())
				dirty = true
			} else if mostRecentInput == nil || in.mtime() > mostRecentInput.mtime() {
				mostRecentInput = in
			}
		}
	}

	if !dirty {
		var outputsDirty bool
		if err := this.RecomputeOutputsDirty(edge, mostRecentInput, &outputsDirty); err != nil {
			return err
		}
		dirty = outputsDirty
	}

	for _, out := range edge.outputs_ {
		if dirty {
			out.MarkDirty()
		}
	}

	if dirty && !(edge.is_phony() && len(edge.inputs_) == 0) {
		edge.outputs_ready_ = false
	}

	edge.mark_ = VisitDone
	*stack = (*stack)[:len(*stack)-1]
	return nil
}

func (this *DependencyScan) verifyDAG(node *Node, stack []*Node) error {
	edge := node.in_edge()
	if edge == nil {
		panic("verifyDAG called on a node with no in-edge")
	}
	if edge.mark_ != VisitInStack {
		return nil
	}

	start := 0
	for start < len(stack) && stack[start].in_edge() != edge {
		start++
	}
	stack[start] = node

	msg := "dependency cycle: "
	for i := start; i < len(stack); i++ {
		msg += stack[i].path() + " -> "
	}
	msg += stack[start].path()
	if start+1 == len(stack) && edge.maybe_phonycycle_diagnostic() {
		msg += " [-w phonycycle=err]"
	}
	return fmt.Errorf("%s", msg)
}

// RecomputeOutputsDirty reports whether any output of edge is dirty.
func (this *DependencyScan) RecomputeOutputsDirty(edge *Edge, mostRecentInput *Node, dirty *bool) error {
	command := edge.EvaluateCommand(true)
	for _, out := range edge.outputs_ {
		d, err := this.recomputeOutputDirty(edge, mostRecentInput, command, out)
		if err != nil {
			return err
		}
		if d {
			*dirty = true
			return nil
		}
	}
	return nil
}

func (this *DependencyScan) recomputeOutputDirty(edge *Edge, mostRecentInput *Node, command string, output *Node) (bool, error) {
	if edge.is_phony() {
		if len(edge.inputs_) != 0 {
			return false, nil
		}
		return true, nil
	}
	if this.build_log_ == nil {
		return false, nil
	}
	entry := this.build_log_.LookupByOutput(output.path())
	if entry == nil {
		this.recordExplanation(output, "output %s doesn't exist in the build log", output.path())
		return true, nil
	}
	if mostRecentInput != nil && !this.skip_check_timestamp_ {
		outputMtime := entry.Mtime
		if entry.Mtime == 0 {
			outputMtime = output.mtime()
		}
		if outputMtime < mostRecentInput.mtime() {
			this.recordExplanation(output, "%s is older than most recent input %s",
				output.path(), mostRecentInput.path())
			return true, nil
		}
	}
	if !CommandHashesEqual(entry.CommandHash, HashCommand(command)) {
		this.recordExplanation(output, "command line changed for %s", output.path())
		return true, nil
	}
	return false, nil
}

func (this *DependencyScan) LoadDyndeps(node *Node) (DyndepFile, error) {
	return this.dyndep_loader_.LoadDyndeps(node)
}

func (this *DependencyScan) LoadDyndepsInto(node *Node, ddf *DyndepFile) error {
	return this.dyndep_loader_.LoadDyndepsInto(node, ddf)
}

// LoadDeps loads implicit dependencies for edge, first consulting the deps
// binding ("gcc" depfile, or a pre-recorded deps-log entry), matching the
// order described in §4.4 dep extraction.
func (this *ImplicitDepLoader) LoadDeps(edge *Edge) error {
	depsType := edge.GetBinding("deps")
	if depsType != "" {
		return this.loadDepsFromLog(edge)
	}
	if depfile := edge.GetUnescapedDepfile(); depfile != "" {
		return this.loadDepFile(edge, depfile)
	}
	return nil
}

func (this *ImplicitDepLoader) loadDepFile(edge *Edge, path string) error {
	content, status, err := this.disk_interface_.ReadFile(path)
	switch status {
	case NotFound:
		edge.deps_missing_ = true
		if this.explanations_ != nil {
			this.explanations_.Record(edge.outputs_[0], "depfile %s is missing", path)
		}
		return nil
	case OtherError:
		return err
	}

	parser := NewDepfileParser(*this.depfile_parser_options_)
	ins, err := parser.Parse(content)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	edge.implicit_deps_ += len(ins)
	for _, dep := range ins {
		path, slashBits := CanonicalizePath(dep)
		n := this.state_.GetNode(path, slashBits)
		n.set_generated_by_dep_loader(true)
		edge.inputs_ = append(edge.inputs_[:len(edge.inputs_)-edge.order_only_deps_], append([]*Node{n}, edge.inputs_[len(edge.inputs_)-edge.order_only_deps_:]...)...)
		n.AddOutEdge(edge)
	}
	return nil
}

func (this *ImplicitDepLoader) loadDepsFromLog(edge *Edge) error {
	if len(edge.outputs_) == 0 {
		return nil
	}
	out := edge.outputs_[0]
	if this.deps_log_ == nil {
		edge.deps_missing_ = true
		return nil
	}
	deps := this.deps_log_.GetDeps(out)
	if deps == nil {
		if this.explanations_ != nil {
			this.explanations_.Record(out, "deps for '%s' are missing", out.path())
		}
		edge.deps_missing_ = true
		return nil
	}
	edge.implicit_deps_ += len(deps.Nodes)
	insertAt := len(edge.inputs_) - edge.order_only_deps_
	edge.inputs_ = append(edge.inputs_[:insertAt], append(append([]*Node{}, deps.Nodes...), edge.inputs_[insertAt:]...)...)
	for _, n := range deps.Nodes {
		n.AddOutEdge(edge)
	}
	return nil
}

package main

import "fmt"

func NewNode(path string, slash_bits uint64) *Node {
	return &Node{path_: path, slash_bits_: slash_bits, mtime_: -1, generated_by_dep_loader_: true}
}

// Stat refreshes mtime_/exists_ from disk. Returns an error only on a
// disk-interface failure, not on a missing file.
func (this *Node) Stat(disk DiskInterface) error {
	mtime, err := disk.Stat(this.path_)
	if err != nil {
		return err
	}
	this.mtime_ = mtime
	if mtime == 0 {
		this.exists_ = ExistenceStatusMissing
	} else {
		this.exists_ = ExistenceStatusExists
	}
	return nil
}

func (this *Node) StatIfNecessary(disk DiskInterface) error {
	if this.status_known() {
		return nil
	}
	return this.Stat(disk)
}

func (this *Node) ResetState() {
	this.mtime_ = -1
	this.exists_ = ExistenceStatusUnknown
	this.dirty_ = false
}

func (this *Node) MarkMissing() {
	if this.mtime_ == -1 {
		this.mtime_ = 0
	}
	this.exists_ = ExistenceStatusMissing
}

func (this *Node) exists() bool          { return this.exists_ == ExistenceStatusExists }
func (this *Node) status_known() bool    { return this.exists_ != ExistenceStatusUnknown }
func (this *Node) path() string          { return this.path_ }
func (this *Node) PathDecanonicalized() string {
	return PathDecanonicalized(this.path_, this.slash_bits_)
}
func (this *Node) slash_bits() uint64 { return this.slash_bits_ }
func (this *Node) mtime() TimeStamp   { return this.mtime_ }

func (this *Node) dirty() bool          { return this.dirty_ }
func (this *Node) set_dirty(dirty bool) { this.dirty_ = dirty }
func (this *Node) MarkDirty()           { this.dirty_ = true }

func (this *Node) dyndep_pending() bool            { return this.dyndep_pending_ }
func (this *Node) set_dyndep_pending(pending bool) { this.dyndep_pending_ = pending }

func (this *Node) in_edge() *Edge         { return this.in_edge_ }
func (this *Node) set_in_edge(edge *Edge) { this.in_edge_ = edge }

func (this *Node) generated_by_dep_loader() bool { return this.generated_by_dep_loader_ }
func (this *Node) set_generated_by_dep_loader(v bool) {
	this.generated_by_dep_loader_ = v
}

func (this *Node) id() int       { return this.id_ }
func (this *Node) set_id(id int) { this.id_ = id }

func (this *Node) out_edges() []*Edge            { return this.out_edges_ }
func (this *Node) validation_out_edges() []*Edge { return this.validation_out_edges_ }
func (this *Node) AddOutEdge(edge *Edge)         { this.out_edges_ = append(this.out_edges_, edge) }
func (this *Node) AddValidationOutEdge(edge *Edge) {
	this.validation_out_edges_ = append(this.validation_out_edges_, edge)
}

func (this *Node) Dump(prefix string) {
	known := "unknown"
	if this.status_known() {
		known = "known"
	}
	fmt.Printf("%s <%s 0x%p> mtime: %d, %s, (:%s), ", prefix, this.path_, this,
		this.mtime_, known, map[bool]string{true: "dirty", false: "clean"}[this.dirty_])
	if this.in_edge_ != nil {
		this.in_edge_.Dump("in-edge: ")
	} else {
		fmt.Printf("no in-edge\n")
	}
	fmt.Printf(" out edges:\n")
	for _, e := range this.out_edges_ {
		e.Dump(" +- ")
	}
}

func NewEdge() *Edge {
	return &Edge{prev_elapsed_time_millis: -1, command_start_time_: -1}
}

// AllInputsReady reports true when every input's producing edge (if any)
// has outputs_ready.
func (this *Edge) AllInputsReady() bool {
	for _, in := range this.inputs_ {
		if in.in_edge() != nil && !in.in_edge().outputs_ready() {
			return false
		}
	}
	return true
}

// EvaluateCommand expands the "command" binding, optionally appending the
// rspfile contents (used only for restat/dirty comparisons, never to run
// the actual command).
func (this *Edge) EvaluateCommand(inclRspFile bool) string {
	command := this.GetBinding("command")
	if inclRspFile {
		if content := this.GetBinding("rspfile_content"); content != "" {
			command += ";rspfile=" + content
		}
	}
	return command
}

func (this *Edge) GetBinding(key string) string {
	env := NewEdgeEnv(this, kShellEscape)
	return env.LookupVariable(key)
}

func (this *Edge) GetBindingBool(key string) bool {
	return this.GetBinding(key) != ""
}

func (this *Edge) GetUnescapedDepfile() string {
	env := NewEdgeEnv(this, kDoNotEscape)
	return env.LookupVariable("depfile")
}

func (this *Edge) GetUnescapedDyndep() string {
	env := NewEdgeEnv(this, kDoNotEscape)
	return env.LookupVariable("dyndep")
}

func (this *Edge) GetUnescapedRspfile() string {
	env := NewEdgeEnv(this, kDoNotEscape)
	return env.LookupVariable("rspfile")
}

func (this *Edge) Dump(prefix string) {
	fmt.Printf("%s[ ", prefix)
	for _, in := range this.inputs_ {
		fmt.Printf("%s ", in.path())
	}
	fmt.Printf("--%s. ", this.rule_.name())
	for _, out := range this.outputs_ {
		fmt.Printf("%s ", out.path())
	}
	if len(this.validations_) != 0 {
		fmt.Printf(" validations ")
		for _, v := range this.validations_ {
			fmt.Printf("%s ", v.path())
		}
	}
	if this.pool_ != nil && this.pool_.name() != "" {
		fmt.Printf("(in pool '%s')", this.pool_.name())
	}
	fmt.Printf("] 0x%p\n", this)
}

// critical_path_weight is the scheduling priority computed once per
// PrepareQueue: the length of the heaviest phony-discounted path from this
// edge to any requested target.
func (this *Edge) critical_path_weight() int64 { return this.critical_path_weight_ }
func (this *Edge) set_critical_path_weight(w int64) {
	this.critical_path_weight_ = w
}

func (this *Edge) rule() *Rule         { return this.rule_ }
func (this *Edge) pool() *Pool         { return this.pool_ }
func (this *Edge) weight() int         { return 1 }
func (this *Edge) outputs_ready() bool { return this.outputs_ready_ }

func (this *Edge) is_implicit(index int) bool {
	return index >= len(this.inputs_)-this.order_only_deps_-this.implicit_deps_ && !this.is_order_only(index)
}
func (this *Edge) is_order_only(index int) bool {
	return index >= len(this.inputs_)-this.order_only_deps_
}
func (this *Edge) is_implicit_out(index int) bool {
	return index >= len(this.outputs_)-this.implicit_outs_
}

func (this *Edge) is_phony() bool { return this.rule_ == kPhonyRule }
func (this *Edge) use_console() bool {
	return this.pool() == kConsolePool
}

// maybe_phonycycle_diagnostic restricts a self-referencing-phony-rule
// diagnostic to the exact shape CMake < 3.1 used to produce.
func (this *Edge) maybe_phonycycle_diagnostic() bool {
	return this.is_phony() && len(this.outputs_) == 1 && this.implicit_outs_ == 0 && this.implicit_deps_ == 0
}

func (this *InputsCollector) Reset() {
	this.inputs_ = nil
	this.visited_nodes_ = map[*Node]bool{}
}

func (this *InputsCollector) VisitNode(node *Node) {
	if this.visited_nodes_ == nil {
		this.visited_nodes_ = map[*Node]bool{}
	}
	if this.visited_nodes_[node] {
		return
	}
	this.visited_nodes_[node] = true
	if edge := node.in_edge(); edge != nil {
		for _, in := range edge.inputs_ {
			this.VisitNode(in)
		}
	}
	this.inputs_ = append(this.inputs_, node)
}

func (this *InputsCollector) inputs() []*Node { return this.inputs_ }

func (this *InputsCollector) GetInputsAsStrings(shellEscape bool) []string {
	out := make([]string, 0, len(this.inputs_))
	for _, n := range this.inputs_ {
		path := n.PathDecanonicalized()
		if shellEscape {
			path = ShellEscape(path)
		}
		out = append(out, path)
	}
	return out
}

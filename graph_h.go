package main

// TimeStamp is a file modification time, as returned by DiskInterface.Stat:
// -1 unexamined, 0 missing, >0 actual mtime (unix nanoseconds).
type TimeStamp int64

type VisitMark int8

const (
	VisitNone VisitMark = iota
	VisitInStack
	VisitDone
)

// Edge is a producing rule instantiation. inputs_ holds explicit, then
// implicit, then order_only_deps_ trailing order-only inputs, in that
// order (§3).
type Edge struct {
	rule_        *Rule
	pool_        *Pool
	inputs_      []*Node
	outputs_     []*Node
	validations_ []*Node
	dyndep_      *Node
	env_         *BindingEnv

	mark_                 VisitMark
	id_                   int
	critical_path_weight_ int64
	outputs_ready_        bool
	deps_loaded_          bool
	deps_missing_         bool
	command_start_time_   TimeStamp

	// prev_elapsed_time_millis is set from the build log, -1 if unknown.
	prev_elapsed_time_millis int64

	implicit_deps_   int
	order_only_deps_ int
	implicit_outs_   int
}

type ExistenceStatus int8

const (
	ExistenceStatusUnknown ExistenceStatus = iota
	ExistenceStatusMissing
	ExistenceStatusExists
)

type Node struct {
	path_       string
	slash_bits_ uint64

	mtime_  TimeStamp
	exists_ ExistenceStatus

	dirty_ bool

	dyndep_pending_ bool

	// generated_by_dep_loader_ is true when this node was discovered via a
	// depfile, dyndep file, or the deps log rather than the manifest: a
	// missing node with this flag set is not a build error.
	generated_by_dep_loader_ bool

	in_edge_ *Edge

	out_edges_            []*Edge
	validation_out_edges_ []*Edge

	id_ int
}

type EdgeSet map[*Edge]bool

type InputsCollector struct {
	inputs_        []*Node
	visited_nodes_ map[*Node]bool
}

// DependencyScan updates the dirty/outputs_ready state of nodes and edges
// (§6 DependencyScan). It is an external collaborator per spec §1: Plan
// and Builder consume it only through this type's exported methods.
type DependencyScan struct {
	build_log_      BuildLog
	deps_log_       DepsLog
	disk_interface_ DiskInterface
	dep_loader_     *ImplicitDepLoader
	dyndep_loader_  *DyndepLoader
	explanations_   *Explanations

	// skip_check_timestamp_ bypasses the output-older-than-input mtime
	// check in recomputeOutputDirty, trusting the build log's command
	// hash alone to decide whether an output needs to be rebuilt.
	skip_check_timestamp_ bool
}

type ImplicitDepLoader struct {
	state_                  *State
	disk_interface_         DiskInterface
	deps_log_               DepsLog
	depfile_parser_options_ *DepfileParserOptions
	explanations_           *Explanations
}

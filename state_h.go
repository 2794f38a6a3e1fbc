package main

// Pool is a named concurrency domain with a fixed or unlimited depth and a
// delay queue of edges waiting for a slot. current_use_ is the sum of the
// weights of edges currently scheduled into this pool by the Plan.
type Pool struct {
	name_ string

	// depth_ <= 0 means unlimited.
	depth_ int

	current_use_ int

	// delayed_ holds edges that would exceed depth_ if scheduled immediately,
	// ordered by descending critical_path_weight (ties broken by insertion
	// order). See pool.go.
	delayed_ *delayQueue
}

// kDefaultPool has no depth limit. kConsolePool has depth 1 and is the only
// pool allowed to let a command inherit the controlling terminal.
var kDefaultPool = &Pool{name_: ""}
var kConsolePool = &Pool{name_: "console", depth_: 1}

type Paths map[string]*Node

type State struct {
	paths_ Paths

	// All the pools used in the graph, keyed by name ("" is kDefaultPool).
	pools_ map[string]*Pool

	// All the edges of the graph.
	edges_ []*Edge

	bindings_ BindingEnv
	defaults_ []*Node
}

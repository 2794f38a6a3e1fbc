package main

// ManifestParserOptions is retained for symmetry with DepfileParserOptions
// even though this manifest format has no dialect knobs yet.
type ManifestParserOptions struct{}

// ManifestParser builds a State from this module's own simplified build
// manifest format. Full ninja manifest parsing (subninja, includes,
// escaping edge cases, MSVC-only bindings) is out of scope per this
// module's non-goals; the grammar below covers the subset the execution
// core (Plan/Builder) actually needs to exercise: rules, pools, build
// edges and top-level variables.
//
//	cflags = -Wall
//
//	pool link_pool
//	  depth = 4
//
//	rule cc
//	  command = gcc -c $in -o $out $cflags
//	  depfile = $out.d
//	  deps = gcc
//
//	build out.o: cc in.c | header.h || order_dep
//	  pool = link_pool
//
//	default out.o
type ManifestParser struct {
	state_ *State
	env_   *BindingEnv
}

func NewManifestParser(state *State) *ManifestParser {
	return &ManifestParser{state_: state, env_: &state.bindings_}
}

package main

// MissingDependencyScannerDelegate receives one callback per input that
// deps_log recorded for a node in the past but that the current build
// graph does not declare as an edge input — a header included without a
// matching build-file dependency, for example.
type MissingDependencyScannerDelegate interface {
	OnMissingDep(node *Node, path string, generator *Rule)
}

// MissingDependencyPrinter is the default delegate for `-t missingdeps`:
// it prints one line per missing dependency and keeps its own counts;
// the scanner's PrintStats reports from the scanner's maps, not these.
type MissingDependencyPrinter struct {
	nodesProcessed      int
	nodesMissingDeps    int
	missingDepPathCount int
	generatedNodes      int
	generatorRules      map[string]bool
}

func NewMissingDependencyPrinter() *MissingDependencyPrinter {
	return &MissingDependencyPrinter{generatorRules: map[string]bool{}}
}

func (this *MissingDependencyPrinter) OnMissingDep(node *Node, path string, generator *Rule) {
	this.missingDepPathCount++
	this.generatorRules[generator.name()] = true
	Info("%s: missing dep '%s' from output of generator rule '%s'", node.path(), path, generator.name())
}

// MissingDependencyScanner walks every node reachable from the given
// targets, using DepsLog history as ground truth for what a node's
// generator actually read, to flag build-file dependencies that were
// never declared (§4.5, deps log as external collaborator).
type MissingDependencyScanner struct {
	delegate_       MissingDependencyScannerDelegate
	depsLog_        DepsLog
	state_          *State
	diskInterface_  DiskInterface
	seen_           map[*Node]bool
	nodesMissing_   map[*Node]bool
	generatedNodes_ map[*Node]bool
}

func NewMissingDependencyScanner(delegate MissingDependencyScannerDelegate, depsLog DepsLog, state *State, disk DiskInterface) *MissingDependencyScanner {
	return &MissingDependencyScanner{
		delegate_:       delegate,
		depsLog_:        depsLog,
		state_:          state,
		diskInterface_:  disk,
		seen_:           map[*Node]bool{},
		nodesMissing_:   map[*Node]bool{},
		generatedNodes_: map[*Node]bool{},
	}
}

// ProcessNode compares node's deps-log history against its edge's
// declared inputs, reporting anything the log saw that the graph
// doesn't know about.
func (this *MissingDependencyScanner) ProcessNode(node *Node) {
	if node == nil || this.seen_[node] {
		return
	}
	this.seen_[node] = true

	edge := node.in_edge()
	if edge == nil || edge.is_phony() {
		return
	}
	this.generatedNodes_[node] = true

	var deps *Deps
	if this.depsLog_ != nil {
		deps = this.depsLog_.GetDeps(node)
	}

	if deps != nil {
		declared := map[*Node]bool{}
		for _, in := range edge.inputs_ {
			declared[in] = true
		}

		missing := false
		for _, d := range deps.Nodes {
			if !declared[d] {
				missing = true
				this.delegate_.OnMissingDep(node, d.path(), edge.rule())
			}
		}
		if missing {
			this.nodesMissing_[node] = true
		}
	}

	for _, in := range edge.inputs_ {
		this.ProcessNode(in)
	}
}

func (this *MissingDependencyScanner) HadMissingDeps() bool {
	return len(this.nodesMissing_) != 0
}

func (this *MissingDependencyScanner) PrintStats() {
	Info("processed %d nodes, %d generated, %d had missing deps",
		len(this.seen_), len(this.generatedNodes_), len(this.nodesMissing_))
}

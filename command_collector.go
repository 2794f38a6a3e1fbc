package main

// CommandCollector walks the dependency graph from a set of targets and
// records every non-phony producing edge in dependency-first order, for
// tools like a compilation database dump that want a stable, deduped
// edge list rather than a live traversal.
type CommandCollector struct {
	visitedNodes_ map[*Node]bool
	visitedEdges_ map[*Edge]bool

	inEdges []*Edge
}

func NewCommandCollector() *CommandCollector {
	return &CommandCollector{
		visitedNodes_: map[*Node]bool{},
		visitedEdges_: map[*Edge]bool{},
	}
}

// CollectFrom recurses through node's inputs before recording node's own
// producing edge, so a dependency always precedes its dependents in
// Edges().
func (this *CommandCollector) CollectFrom(node *Node) {
	if node == nil {
		panic("node must not be nil")
	}
	if this.visitedNodes_[node] {
		return
	}
	this.visitedNodes_[node] = true

	edge := node.in_edge()
	if edge == nil || this.visitedEdges_[edge] {
		return
	}
	this.visitedEdges_[edge] = true

	for _, in := range edge.inputs_ {
		this.CollectFrom(in)
	}

	if !edge.is_phony() {
		this.inEdges = append(this.inEdges, edge)
	}
}

func (this *CommandCollector) Edges() []*Edge { return this.inEdges }

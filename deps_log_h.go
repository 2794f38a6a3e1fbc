package main

// DepsLog is the persisted table of implicit dependencies discovered by
// previous builds (extracted from depfiles), keyed by output node. Like
// BuildLog it is an external collaborator (§1, §6): DependencyScan reads
// it through this interface only.
type DepsLog interface {
	GetDeps(node *Node) *Deps
	RecordDeps(node *Node, mtime TimeStamp, nodes []*Node) error
	Close() error
}

type Deps struct {
	Mtime TimeStamp
	Nodes []*Node
}

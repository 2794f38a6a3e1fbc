package main

import "fmt"

// Explanations records, per node, the human-readable reasons
// DependencyScan decided it was dirty, surfaced by `-d explain`. Building
// one at all is optional: NewBuilder only allocates it when its explain
// argument is true, and every recordExplanation call in dependency_scan.go
// tolerates a nil *Explanations.
type Explanations struct {
	byNode map[*Node][]string
}

func NewExplanations() *Explanations {
	return &Explanations{byNode: map[*Node][]string{}}
}

func (this *Explanations) Record(node *Node, format string, args ...interface{}) {
	this.byNode[node] = append(this.byNode[node], fmt.Sprintf(format, args...))
}

func (this *Explanations) LookupAndAppend(node *Node, out []string) []string {
	return append(out, this.byNode[node]...)
}

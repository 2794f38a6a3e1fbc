package main

import "fmt"

// Dyndeps is the extra input/output/restat information a dyndep file
// contributes to one edge, keyed by that edge in a DyndepFile (§ dyndep
// incorporation).
type Dyndeps struct {
	used             bool
	restat           bool
	implicitInputs   []*Node
	implicitOutputs  []*Node
}

// DyndepFile maps each edge named by a dyndep file to the extra
// dependency information discovered for it.
type DyndepFile map[*Edge]*Dyndeps

// DyndepLoader reads a dyndep file and folds its contents into the build
// graph in place, mutating the edges it names mid-scan (§4.2 dyndep
// incorporation, §6).
type DyndepLoader struct {
	state_          *State
	disk_interface_ DiskInterface
	explanations_   *Explanations
}

func NewDyndepLoader(state *State, disk DiskInterface, explanations *Explanations) *DyndepLoader {
	return &DyndepLoader{state_: state, disk_interface_: disk, explanations_: explanations}
}

func (this *DyndepLoader) LoadDyndeps(node *Node) (DyndepFile, error) {
	ddf := DyndepFile{}
	if err := this.LoadDyndepsInto(node, &ddf); err != nil {
		return nil, err
	}
	return ddf, nil
}

func (this *DyndepLoader) LoadDyndepsInto(node *Node, ddf *DyndepFile) error {
	node.set_dyndep_pending(false)
	if this.explanations_ != nil {
		this.explanations_.Record(node, fmt.Sprintf("loading dyndep file '%s'", node.path()))
	}

	parser := NewDyndepParser(this.state_, this.disk_interface_)
	if err := parser.Parse(node.path(), *ddf); err != nil {
		return err
	}

	for _, edge := range node.out_edges() {
		if edge.dyndep_ != node {
			continue
		}
		deps, ok := (*ddf)[edge]
		if !ok {
			return fmt.Errorf("'%s' not mentioned in its dyndep file '%s'", edge.outputs_[0].path(), node.path())
		}
		deps.used = true
		if err := this.updateEdge(edge, deps); err != nil {
			return err
		}
	}

	for edge, deps := range *ddf {
		if !deps.used {
			return fmt.Errorf("dyndep file '%s' mentions output '%s' whose build statement has no dyndep binding for it",
				node.path(), edge.outputs_[0].path())
		}
	}
	return nil
}

func (this *DyndepLoader) updateEdge(edge *Edge, deps *Dyndeps) error {
	if deps.restat {
		edge.env_.AddBinding("restat", "1")
	}

	edge.outputs_ = append(edge.outputs_, deps.implicitOutputs...)
	edge.implicit_outs_ += len(deps.implicitOutputs)
	for _, n := range deps.implicitOutputs {
		if n.in_edge() != nil {
			return fmt.Errorf("multiple rules generate %s", n.path())
		}
		n.set_in_edge(edge)
	}

	insertAt := len(edge.inputs_) - edge.order_only_deps_
	edge.inputs_ = append(edge.inputs_[:insertAt], append(append([]*Node{}, deps.implicitInputs...), edge.inputs_[insertAt:]...)...)
	edge.implicit_deps_ += len(deps.implicitInputs)
	for _, n := range deps.implicitInputs {
		n.AddOutEdge(edge)
	}
	return nil
}

package main

import "fmt"

func NewState() *State {
	ret := State{
		paths_: Paths{},
		pools_: map[string]*Pool{},
	}
	ret.bindings_ = *NewBindingEnv(nil)
	ret.bindings_.AddRule(kPhonyRule)
	ret.AddPool(kDefaultPool)
	ret.AddPool(kConsolePool)
	return &ret
}

func (this *State) AddPool(pool *Pool) {
	if this.LookupPool(pool.name_) != nil {
		panic("duplicate pool " + pool.name_)
	}
	this.pools_[pool.name_] = pool
}

func (this *State) LookupPool(pool_name string) *Pool {
	return this.pools_[pool_name]
}

func (this *State) AddEdge(rule *Rule) *Edge {
	edge := NewEdge()
	edge.rule_ = rule
	edge.pool_ = kDefaultPool
	edge.env_ = &this.bindings_
	edge.id_ = len(this.edges_)
	this.edges_ = append(this.edges_, edge)
	return edge
}

func (this *State) GetNode(path string, slash_bits uint64) *Node {
	if node := this.LookupNode(path); node != nil {
		return node
	}
	node := NewNode(path, slash_bits)
	this.paths_[node.path()] = node
	return node
}

func (this *State) LookupNode(path string) *Node {
	return this.paths_[path]
}

func (this *State) SpellcheckNode(path string) *Node {
	const kAllowReplacements = true
	const kMaxValidEditDistance = 3

	min_distance := kMaxValidEditDistance + 1
	var result *Node
	for candidate, node := range this.paths_ {
		distance := EditDistance(candidate, path, kAllowReplacements, kMaxValidEditDistance)
		if distance < min_distance {
			min_distance = distance
			result = node
		}
	}
	return result
}

func (this *State) AddIn(edge *Edge, path string, slash_bits uint64) {
	node := this.GetNode(path, slash_bits)
	edge.inputs_ = append(edge.inputs_, node)
	node.AddOutEdge(edge)
}

func (this *State) AddOut(edge *Edge, path string, slash_bits uint64) error {
	node := this.GetNode(path, slash_bits)
	if other := node.in_edge(); other != nil {
		if other == edge {
			return fmt.Errorf("%s is defined as an output multiple times", path)
		}
		return fmt.Errorf("multiple rules generate %s", path)
	}
	edge.outputs_ = append(edge.outputs_, node)
	node.set_in_edge(edge)
	return nil
}

func (this *State) AddValidation(edge *Edge, path string, slash_bits uint64) {
	node := this.GetNode(path, slash_bits)
	edge.validations_ = append(edge.validations_, node)
	node.AddValidationOutEdge(edge)
}

func (this *State) AddDefault(path string) error {
	node := this.LookupNode(path)
	if node == nil {
		return fmt.Errorf("unknown target '%s'", path)
	}
	this.defaults_ = append(this.defaults_, node)
	return nil
}

// RootNodes returns nodes that are not consumed as inputs by any edge.
func (this *State) RootNodes() ([]*Node, error) {
	var root_nodes []*Node
	for _, e := range this.edges_ {
		for _, out := range e.outputs_ {
			if len(out.out_edges()) == 0 {
				root_nodes = append(root_nodes, out)
			}
		}
	}
	if len(this.edges_) != 0 && len(root_nodes) == 0 {
		return nil, fmt.Errorf("could not determine root nodes of build graph")
	}
	return root_nodes, nil
}

func (this *State) DefaultNodes() ([]*Node, error) {
	if len(this.defaults_) == 0 {
		return this.RootNodes()
	}
	return this.defaults_, nil
}

// Reset clears stat/dirty state on every node and edge, as if freshly
// parsed. Used by tests that reuse a State across scans.
func (this *State) Reset() {
	for _, n := range this.paths_ {
		n.ResetState()
	}
	for _, e := range this.edges_ {
		e.outputs_ready_ = false
		e.deps_loaded_ = false
		e.mark_ = VisitNone
	}
}

func (this *State) Dump() {
	for _, node := range this.paths_ {
		status := "unknown"
		if node.status_known() {
			if node.dirty() {
				status = "dirty"
			} else {
				status = "clean"
			}
		}
		fmt.Printf("%s %s [id:%d]\n", node.path(), status, node.id())
	}
	if len(this.pools_) != 0 {
		fmt.Printf("resource_pools:\n")
		for _, pool := range this.pools_ {
			if pool.name_ != "" {
				pool.Dump()
			}
		}
	}
}

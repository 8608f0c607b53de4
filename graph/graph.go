// PTRA: Patient Trajectory Analysis Library
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ptra/blob/master/LICENSE.txt>.

package graph

import (
	"fmt"
	"sort"
	"strings"
)

// ConstructionError reports a failure to build a valid Graph: duplicate
// names, dangling edges, mixed binary/trinary LNLs, or a tumor with
// incoming edges.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return "graph: construction failed: " + e.Reason
}

// reservedPrefixes lists the prefixes the parameter surface (package
// params) builds keys from; a node name starting with one of these
// would make its own parameter keys ambiguous.
var reservedPrefixes = []string{"spread_", "micro_", "growth_"}

// NodeKey identifies a node by its kind and name in a graph Spec.
type NodeKey struct {
	Kind Kind
	Name string
}

// Spec is the external, caller-facing representation of a graph
// topology: each node maps to the set of LNL names it spreads to.
type Spec map[NodeKey][]string

// Graph owns the Nodes and Edges arenas exclusively; Node and Edge
// values refer to each other only via indices into these slices, so the
// Graph itself never needs back-pointers to stay acyclic-safe.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int // node name -> index, across both kinds
	lnls  []int          // indices of LNL nodes, in stable (sorted) order

	// Epoch counts edge-parameter mutations made through SetSpreadProb /
	// SetMicroMod. The transition-matrix builder (package transition)
	// compares it against the epoch its cache was built at to decide
	// whether to rebuild.
	Epoch int
}

// New builds a Graph from spec, with LNLs restricted to allowedStates
// (which must be {0,1} or {0,1,2}). The tumor's pinned state is the
// maximum of allowedStates. Trinary graphs get one growth self-edge per
// LNL, added automatically.
func New(spec Spec, allowedStates []int) (*Graph, error) {
	if len(allowedStates) != 2 && len(allowedStates) != 3 {
		return nil, &ConstructionError{Reason: fmt.Sprintf("allowedStates must have 2 or 3 entries, got %v", allowedStates)}
	}
	tumorState := allowedStates[len(allowedStates)-1]

	g := &Graph{index: map[string]int{}}

	// Deterministic iteration order: sort node keys by kind then name so
	// that construction (and hence StateList/ObservationList ordering)
	// is independent of Go's randomized map iteration.
	keys := make([]NodeKey, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Name < keys[j].Name
	})

	for _, k := range keys {
		if err := validateName(k.Name); err != nil {
			return nil, err
		}
		if _, exists := g.index[k.Name]; exists {
			return nil, &ConstructionError{Reason: fmt.Sprintf("duplicate node name %q", k.Name)}
		}
		var node Node
		switch k.Kind {
		case Tumor:
			node = Node{Name: k.Name, Kind: Tumor, AllowedStates: []int{tumorState}, State: tumorState}
		case LNL:
			states := append([]int(nil), allowedStates...)
			node = Node{Name: k.Name, Kind: LNL, AllowedStates: states}
		}
		g.index[k.Name] = len(g.Nodes)
		g.Nodes = append(g.Nodes, node)
	}

	for _, k := range keys {
		parentIdx := g.index[k.Name]
		for _, childName := range spec[k] {
			childIdx, ok := g.index[childName]
			if !ok {
				return nil, &ConstructionError{Reason: fmt.Sprintf("edge %s->%s: %q is not a declared node", k.Name, childName, childName)}
			}
			if g.Nodes[childIdx].Kind != LNL {
				return nil, &ConstructionError{Reason: fmt.Sprintf("edge %s->%s: target %q must be an lnl", k.Name, childName, childName)}
			}
			g.addEdge(parentIdx, childIdx, 0, 1.0)
		}
	}

	for i, n := range g.Nodes {
		if n.Kind == Tumor && len(n.Incoming) > 0 {
			return nil, &ConstructionError{Reason: fmt.Sprintf("tumor %q has incoming edges", n.Name)}
		}
		if n.Kind == LNL {
			g.lnls = append(g.lnls, i)
		}
	}
	sort.Slice(g.lnls, func(i, j int) bool { return g.Nodes[g.lnls[i]].Name < g.Nodes[g.lnls[j]].Name })

	if len(allowedStates) == 3 {
		for _, idx := range g.lnls {
			g.addEdge(idx, idx, 0, 1.0)
		}
	}

	return g, nil
}

// NewBinary builds a binary Graph ({0,1} LNL states).
func NewBinary(spec Spec) (*Graph, error) {
	return New(spec, []int{0, 1})
}

// NewTrinary builds a trinary Graph ({0,1,2} LNL states).
func NewTrinary(spec Spec) (*Graph, error) {
	return New(spec, []int{0, 1, 2})
}

func validateName(name string) error {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return &ConstructionError{Reason: fmt.Sprintf("node name %q uses reserved parameter-key prefix %q", name, prefix)}
		}
	}
	return nil
}

func (g *Graph) addEdge(parent, child int, spreadProb, microMod float64) int {
	idx := len(g.Edges)
	g.Edges = append(g.Edges, Edge{Parent: parent, Child: child, SpreadProb: spreadProb, MicroMod: microMod})
	g.Nodes[parent].Outgoing = append(g.Nodes[parent].Outgoing, idx)
	g.Nodes[child].Incoming = append(g.Nodes[child].Incoming, idx)
	return idx
}

// LNLs returns the indices of LNL nodes, in stable name order. This
// order defines the positional order used by StateList and
// ObservationList.
func (g *Graph) LNLs() []int {
	return g.lnls
}

// IsBinary reports whether the graph's LNLs are binary.
func (g *Graph) IsBinary() bool {
	if len(g.lnls) == 0 {
		return true
	}
	return g.Nodes[g.lnls[0]].IsBinary()
}

// IsTrinary reports whether the graph's LNLs are trinary.
func (g *Graph) IsTrinary() bool {
	return !g.IsBinary()
}

// FindNode returns the index of the node named name, or -1 if absent.
func (g *Graph) FindNode(name string) int {
	if idx, ok := g.index[name]; ok {
		return idx
	}
	return -1
}

// SpreadEdges returns the indices of every non-growth edge (tumor->lnl
// and lnl->lnl), in a stable order.
func (g *Graph) SpreadEdges() []int {
	var out []int
	for i := range g.Edges {
		if !g.Edges[i].IsGrowth() {
			out = append(out, i)
		}
	}
	return out
}

// LNLSpreadEdges returns the indices of every lnl->lnl (non-tumor,
// non-growth) edge, the ones whose MicroMod is meaningful.
func (g *Graph) LNLSpreadEdges() []int {
	var out []int
	for i := range g.Edges {
		e := &g.Edges[i]
		if !e.IsGrowth() && !e.IsTumorSpread(g) {
			out = append(out, i)
		}
	}
	return out
}

// GrowthEdges returns the indices of every growth self-edge.
func (g *Graph) GrowthEdges() []int {
	var out []int
	for i := range g.Edges {
		if g.Edges[i].IsGrowth() {
			out = append(out, i)
		}
	}
	return out
}

// GetStates returns the current state of every LNL, in LNL order.
func (g *Graph) GetStates() []int {
	states := make([]int, len(g.lnls))
	for i, idx := range g.lnls {
		states[i] = g.Nodes[idx].State
	}
	return states
}

// AssignStates sets the current state of every LNL, in LNL order.
func (g *Graph) AssignStates(states []int) error {
	if len(states) != len(g.lnls) {
		return fmt.Errorf("graph: expected %d states, got %d", len(g.lnls), len(states))
	}
	for i, idx := range g.lnls {
		if err := g.Nodes[idx].SetState(states[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent copy of g: a deep copy of Nodes and
// Edges, sharing no mutable state with the original. Matrix builders
// (package transition) hand one clone per worker goroutine so that
// AssignStates/TransitionRow can drive each row of a parallel build
// without goroutines racing on a single Graph's node state.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
		index: make(map[string]int, len(g.index)),
		lnls:  append([]int(nil), g.lnls...),
		Epoch: g.Epoch,
	}
	for i, n := range g.Nodes {
		clone.Nodes[i] = Node{
			Name:          n.Name,
			Kind:          n.Kind,
			AllowedStates: append([]int(nil), n.AllowedStates...),
			State:         n.State,
			Incoming:      append([]int(nil), n.Incoming...),
			Outgoing:      append([]int(nil), n.Outgoing...),
		}
	}
	for k, v := range g.index {
		clone.index[k] = v
	}
	return clone
}

// TransitionRow returns the probability of every possible new state for
// the LNL at index lnlIdx (an index into g.Nodes), given the graph's
// current node states (the current state of lnlIdx itself, and of all
// of its parents). It is the per-LNL factor used by the transition
// matrix builder.
func (g *Graph) TransitionRow(lnlIdx int) []float64 {
	node := &g.Nodes[lnlIdx]
	card := node.Cardinality()
	row := make([]float64, card)

	switch {
	case card == 3 && node.State == 1:
		growth := g.growthEdge(lnlIdx)
		gprob := 0.0
		if growth != nil {
			gprob = growth.SpreadProb
		}
		row[1] = 1 - gprob
		row[2] = gprob
		return row
	case card == 3 && node.State == 2:
		row[2] = 1
		return row
	case card == 2 && node.State == 1:
		row[1] = 1
		return row
	}

	// node.State == 0: noisy-OR combination of every non-growth
	// incoming edge's effective spread probability.
	stay := 1.0
	for _, eIdx := range node.Incoming {
		e := &g.Edges[eIdx]
		if e.IsGrowth() {
			continue
		}
		stay *= 1 - e.effectiveSpread(g)
	}
	row[0] = stay
	row[1] = 1 - stay
	return row
}

// SetSpreadProb validates and assigns the spread probability of the
// edge at index eIdx (also used for a growth edge's growth
// probability), bumping Epoch on success.
func (g *Graph) SetSpreadProb(eIdx int, value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("graph: spread_prob must be in [0,1], got %f", value)
	}
	g.Edges[eIdx].SpreadProb = value
	g.Epoch++
	return nil
}

// SetMicroMod validates and assigns the microscopic modifier of the
// edge at index eIdx, bumping Epoch on success.
func (g *Graph) SetMicroMod(eIdx int, value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("graph: micro_mod must be in [0,1], got %f", value)
	}
	g.Edges[eIdx].MicroMod = value
	g.Epoch++
	return nil
}

func (g *Graph) growthEdge(lnlIdx int) *Edge {
	for _, eIdx := range g.Nodes[lnlIdx].Incoming {
		if g.Edges[eIdx].IsGrowth() {
			return &g.Edges[eIdx]
		}
	}
	return nil
}

// BNProb returns the static (time-free, growth-free) Bayesian-network
// conditional probability that the LNL at lnlIdx is in its current
// state, given the current states of its parents. Growth is excluded
// in this static view, so spread edges can only raise an LNL to state 1;
// state 2 is therefore unreachable in BN mode, and BNProb returns 0
// whenever the node's own current state is 2.
func (g *Graph) BNProb(lnlIdx int) float64 {
	node := &g.Nodes[lnlIdx]
	if node.Cardinality() == 3 && node.State == 2 {
		return 0
	}
	stay := 1.0
	for _, eIdx := range node.Incoming {
		e := &g.Edges[eIdx]
		if e.IsGrowth() {
			continue
		}
		stay *= 1 - e.effectiveSpread(g)
	}
	if node.State == 0 {
		return stay
	}
	return 1 - stay
}

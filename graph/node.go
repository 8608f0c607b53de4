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

// Package graph implements the directed-graph representation of a
// lymphatic system: Tumor and LNL nodes connected by spread edges.
package graph

import "fmt"

// Kind distinguishes a Tumor node from a lymph node level (LNL).
type Kind int

const (
	Tumor Kind = iota
	LNL
)

func (k Kind) String() string {
	if k == Tumor {
		return "tumor"
	}
	return "lnl"
}

// Node is a Tumor or an LNL in the graph, identified by its index in the
// owning Graph's node arena. Nodes never hold pointers to other nodes or
// edges directly; adjacency is expressed as index lists so the Graph
// remains the sole owner of the arena.
type Node struct {
	Name          string
	Kind          Kind
	AllowedStates []int // e.g. {1} for Tumor, {0,1} binary LNL, {0,1,2} trinary LNL
	State         int

	Incoming []int // indices into Graph.Edges
	Outgoing []int // indices into Graph.Edges
}

// IsBinary reports whether the node's allowed states are {0,1}.
func (n *Node) IsBinary() bool {
	return len(n.AllowedStates) == 2
}

// IsTrinary reports whether the node's allowed states are {0,1,2}.
func (n *Node) IsTrinary() bool {
	return len(n.AllowedStates) == 3
}

// Cardinality returns the number of allowed states for this node.
func (n *Node) Cardinality() int {
	return len(n.AllowedStates)
}

// SetState assigns a new current state, validating it against
// AllowedStates.
func (n *Node) SetState(state int) error {
	for _, s := range n.AllowedStates {
		if s == state {
			n.State = state
			return nil
		}
	}
	return fmt.Errorf("graph: state %d not allowed for node %q (allowed: %v)", state, n.Name, n.AllowedStates)
}

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

// Edge is a directed arc from a parent (Tumor or LNL) to a child LNL.
// A growth edge has Parent == Child and only exists on trinary LNLs.
type Edge struct {
	Parent int // index into Graph.Nodes
	Child  int // index into Graph.Nodes

	SpreadProb float64 // p, in [0,1]
	MicroMod   float64 // mu, in [0,1]; meaningful only for trinary LNL->LNL edges
}

// IsTumorSpread reports whether the parent of this edge is a Tumor.
func (e *Edge) IsTumorSpread(g *Graph) bool {
	return g.Nodes[e.Parent].Kind == Tumor
}

// IsGrowth reports whether this edge is a trinary LNL's self-loop.
func (e *Edge) IsGrowth() bool {
	return e.Parent == e.Child
}

// effectiveSpread returns the spread probability an edge contributes
// given its parent's current state. A parent in
// state 0 contributes nothing (returns 0). A Tumor parent is always
// involved and contributes SpreadProb unmodified. An LNL parent in its
// maximum (macroscopic) state contributes SpreadProb unmodified; a
// trinary LNL parent in its microscopic state (1) contributes
// SpreadProb*MicroMod.
func (e *Edge) effectiveSpread(g *Graph) float64 {
	parent := g.Nodes[e.Parent]
	if parent.Kind == Tumor {
		return e.SpreadProb
	}
	switch parent.State {
	case 0:
		return 0
	default:
		if parent.IsTrinary() && parent.State == 1 {
			return e.SpreadProb * e.MicroMod
		}
		return e.SpreadProb
	}
}

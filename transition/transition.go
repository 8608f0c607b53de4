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

// Package transition builds the row-stochastic hidden-state transition
// matrix T: T[i][j] is the probability of moving from state vector i
// to state vector j in one time step, the product over every LNL of
// that LNL's own TransitionRow entry.
package transition

import (
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/exascience/pargo/parallel"

	"github.com/imec-int/lnlspread/graph"
	"github.com/imec-int/lnlspread/state"
)

// Matrix wraps the built transition matrix together with the epoch of
// the graph it was built from, so Get can tell a stale matrix from a
// current one and rebuild only when needed.
type Matrix struct {
	g      *graph.Graph
	states *state.List
	dense  *mat.Dense
	epoch  int
}

// New creates a Matrix builder over g's current topology, enumerating
// states via states. The matrix itself is not built until Get is
// called.
func New(g *graph.Graph, states *state.List) *Matrix {
	return &Matrix{g: g, states: states, epoch: -1}
}

// Get returns the transition matrix, (re)building it if g has been
// mutated (via params.Table / graph.Graph.SetSpreadProb /
// SetMicroMod) since the last build.
func (m *Matrix) Get() *mat.Dense {
	if m.dense == nil || m.epoch != m.g.Epoch {
		m.dense = m.build()
		m.epoch = m.g.Epoch
	}
	return m.dense
}

// build computes T[i][j] = product over LNLs k of
// P(state_j[k] | state_i[k], parents of k), row by row. Rows are
// independent of one another, so they are filled in parallel, one
// cloned Graph per worker chunk: TransitionRow reads and
// AssignStates writes a Graph's node states, so concurrent workers
// must not share one Graph instance.
func (m *Matrix) build() *mat.Dense {
	size := m.states.Len()
	n := len(m.g.LNLs())
	dense := mat.NewDense(size, size, nil)

	parallel.Range(0, size, 0, func(low, high int) {
		localGraph := m.g.Clone()
		lnls := localGraph.LNLs()
		rows := make([][]float64, n)
		for i := low; i < high; i++ {
			if err := localGraph.AssignStates(m.states.Vectors[i]); err != nil {
				log.Panic(err) // states.List only ever enumerates allowed vectors
			}
			for k, lnlIdx := range lnls {
				rows[k] = localGraph.TransitionRow(lnlIdx)
			}
			for j := 0; j < size; j++ {
				vector := m.states.Vectors[j]
				prob := 1.0
				for k, s := range vector {
					prob *= rows[k][s]
				}
				dense.Set(i, j, prob)
			}
		}
	})

	return dense
}

// Power raises the transition matrix to the t-th power, giving the
// t-step transition matrix used by the HMM evolution.
// t == 0 returns the identity.
func (m *Matrix) Power(t int) *mat.Dense {
	size := m.states.Len()
	result := mat.NewDense(size, size, nil)
	if t == 0 {
		for i := 0; i < size; i++ {
			result.Set(i, i, 1)
		}
		return result
	}
	result.Copy(m.Get())
	for step := 1; step < t; step++ {
		var next mat.Dense
		next.Mul(result, m.Get())
		result = &next
	}
	return result
}

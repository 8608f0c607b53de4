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

// Package observation builds the row-stochastic observation matrix O:
// O[s,z] is the probability of observing vector z given hidden state
// s, the product over every (lnl, modality) pair of that modality's
// confusion-matrix entry.
package observation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/exascience/pargo/parallel"

	"github.com/imec-int/lnlspread/modality"
	"github.com/imec-int/lnlspread/state"
)

// Matrix wraps the built observation matrix together with the epoch of
// the modality.Set it was built from.
type Matrix struct {
	states *state.List
	obs    *state.ObservationList
	modSet *modality.Set
	dense  *mat.Dense
	epoch  int
}

// New creates a Matrix builder over modSet's current modalities,
// indexed by states (hidden) and obs (observation). The matrix is not
// built until Get is called.
func New(states *state.List, obs *state.ObservationList, modSet *modality.Set) *Matrix {
	return &Matrix{states: states, obs: obs, modSet: modSet, epoch: -1}
}

// Get returns the observation matrix, (re)building it if modSet has
// been mutated (via modality.Set.Add) since the last build.
func (m *Matrix) Get() *mat.Dense {
	if m.dense == nil || m.epoch != m.modSet.Epoch {
		m.dense = m.build()
		m.epoch = m.modSet.Epoch
	}
	return m.dense
}

// build computes O[s,z] = product over (lnl, modality) of
// confusion(modality).At(z_(lnl,modality), s_lnl). Rows (hidden
// states) are independent, so they are filled in parallel.
func (m *Matrix) build() *mat.Dense {
	numStates := m.states.Len()
	numObs := m.obs.Len()
	dense := mat.NewDense(numStates, numObs, nil)

	confusions := make([]*modality.Confusion, len(m.modSet.Names))
	for i, name := range m.modSet.Names {
		confusions[i] = m.modSet.Modalities[name]
	}

	parallel.Range(0, numStates, 0, func(low, high int) {
		for s := low; s < high; s++ {
			hidden := m.states.Vectors[s]
			for z := 0; z < numObs; z++ {
				prob := 1.0
				for lnl, state := range hidden {
					for mod, c := range confusions {
						prob *= c.At(m.obs.At(z, lnl, mod), state)
					}
				}
				dense.Set(s, z, prob)
			}
		}
	})

	return dense
}

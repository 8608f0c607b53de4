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

package diagnose

import (
	"gonum.org/v1/gonum/mat"

	"github.com/exascience/pargo/parallel"

	"github.com/imec-int/lnlspread/state"
)

// Layout resolves a (modality, lnl) pair to its position in the
// ObservationList's flattened axis; it mirrors the positional order
// graph.Graph.LNLs() and modality.Set.Names were built in.
type Layout struct {
	LNLIndex      map[string]int
	ModalityIndex map[string]int
}

// Build assembles the S x P_t diagnose matrix for one T-stage's rows:
// C[i,j] sums O[i,z] over every observation z admitted by patient j
// (z agrees with every non-missing entry of patient j). Columns
// (patients) are independent of one another, so they are filled in
// parallel.
func Build(obs *mat.Dense, obsList *state.ObservationList, layout Layout, rows []Row) *mat.Dense {
	numStates, _ := obs.Dims()
	numPatients := len(rows)
	c := mat.NewDense(numStates, numPatients, nil)
	if numPatients == 0 {
		return c
	}

	parallel.Range(0, numPatients, 0, func(low, high int) {
		for j := low; j < high; j++ {
			zs := admittedObservations(obsList, layout, rows[j])
			for i := 0; i < numStates; i++ {
				sum := 0.0
				for _, z := range zs {
					sum += obs.At(i, z)
				}
				c.Set(i, j, sum)
			}
		}
	})
	return c
}

func admittedObservations(obsList *state.ObservationList, layout Layout, row Row) []int {
	var out []int
	for z := 0; z < obsList.Len(); z++ {
		if matchesRow(obsList, layout, row, z) {
			out = append(out, z)
		}
	}
	return out
}

func matchesRow(obsList *state.ObservationList, layout Layout, row Row, z int) bool {
	for modality, lnls := range row {
		modIdx, ok := layout.ModalityIndex[modality]
		if !ok {
			continue
		}
		for lnl, value := range lnls {
			if value == nil {
				continue
			}
			lnlIdx, ok := layout.LNLIndex[lnl]
			if !ok {
				continue
			}
			want := 0
			if *value {
				want = 1
			}
			if obsList.At(z, lnlIdx, modIdx) != want {
				return false
			}
		}
	}
	return true
}

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

package infer

import (
	"fmt"
	"math"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/imec-int/lnlspread/diagnose"
)

// GenerateDataset draws n synthetic patients: a (t_stage, diag_time)
// pair per patient from stageDist joined with
// that stage's diagnose-time pmf, evolved to the drawn time, then one
// observation sampled from the resulting per-patient observation
// distribution.
func (m *Model) GenerateDataset(n int, stageDist map[string]float64) ([]diagnose.Entry, error) {
	stages := make([]string, 0, len(stageDist))
	for stage := range stageDist {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	stageWeights := make([]float64, len(stages))
	for i, stage := range stages {
		stageWeights[i] = stageDist[stage]
	}

	obsDense := m.observationMatrix.Get()
	numObs := m.Observations.Len()
	entries := make([]diagnose.Entry, 0, n)

	for i := 0; i < n; i++ {
		stage := stages[weightedPick(stageWeights)]
		dist, ok := m.Dist.Get(stage)
		if !ok {
			return nil, fmt.Errorf("infer: no distribution configured for T-stage %q", stage)
		}
		diagTime := weightedPick(dist.Pmf())

		piAtT := m.EvolveAt(diagTime)
		obsDist := make([]float64, numObs)
		for s, w := range piAtT {
			if w == 0 {
				continue
			}
			for z := 0; z < numObs; z++ {
				obsDist[z] += w * obsDense.At(s, z)
			}
		}

		cat := distuv.Categorical{Weights: obsDist}
		z := int(cat.Rand())
		entries = append(entries, diagnose.Entry{TStage: stage, Row: m.observationToRow(z)})
	}
	return entries, nil
}

// weightedPick draws an index from weights (need not sum to 1) using
// fastrand for fast, seedless sampling in a hot loop.
func weightedPick(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	u := float64(fastrand.Uint32()) / float64(math.MaxUint32) * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u <= cum {
			return i
		}
	}
	return len(weights) - 1
}

func (m *Model) observationToRow(z int) diagnose.Row {
	lnlNames := make([]string, len(m.Graph.LNLs()))
	for name, pos := range m.layout.LNLIndex {
		lnlNames[pos] = name
	}
	modNames := make([]string, len(m.Modalities.Names))
	for name, pos := range m.layout.ModalityIndex {
		modNames[pos] = name
	}

	row := diagnose.Row{}
	for modPos, modName := range modNames {
		row[modName] = map[string]*bool{}
		for lnlPos, lnlName := range lnlNames {
			bit := m.Observations.At(z, lnlPos, modPos) == 1
			row[modName][lnlName] = &bit
		}
	}
	return row
}

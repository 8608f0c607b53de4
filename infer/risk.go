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
	"errors"
	"fmt"

	"github.com/imec-int/lnlspread/diagnose"
	"github.com/imec-int/lnlspread/params"
)

// RiskVector computes the full posterior over hidden states given
// given, a partial observation of the same shape as a diagnose.Row,
// under mode. For HMM mode tStage selects which diagnose-time pmf
// marginalizes Pi; it is ignored in BN mode.
func (m *Model) RiskVector(given diagnose.Row, tStage string, mode Mode, givenParams map[string]float64) ([]float64, error) {
	if givenParams != nil {
		if err := m.Params.AssignParams(givenParams); err != nil {
			var rangeErr *params.ParameterRangeError
			if errors.As(err, &rangeErr) {
				return make([]float64, m.States.Len()), nil
			}
			return nil, err
		}
	}

	d := m.diagnosisSelector(given)

	var piMarg []float64
	switch mode {
	case ModeHMM:
		marg, err := m.piMarginal(tStage)
		if err != nil {
			return nil, err
		}
		piMarg = marg
	case ModeBN:
		piMarg = m.bnVector()
	default:
		return nil, fmt.Errorf("infer: unknown mode %d", mode)
	}

	posterior := make([]float64, m.States.Len())
	total := 0.0
	for i := range posterior {
		posterior[i] = piMarg[i] * d[i]
		total += posterior[i]
	}
	if total <= 0 {
		return posterior, nil
	}
	for i := range posterior {
		posterior[i] /= total
	}
	return posterior, nil
}

// Risk aggregates RiskVector's posterior over every hidden state that
// matches involvement on its non-missing (named) LNLs.
func (m *Model) Risk(given diagnose.Row, tStage string, mode Mode, involvement map[string]int, givenParams map[string]float64) (float64, error) {
	posterior, err := m.RiskVector(given, tStage, mode, givenParams)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i, vector := range m.States.Vectors {
		if m.matchesInvolvement(vector, involvement) {
			sum += posterior[i]
		}
	}
	return sum, nil
}

func (m *Model) matchesInvolvement(vector []int, involvement map[string]int) bool {
	for lnl, want := range involvement {
		pos, ok := m.layout.LNLIndex[lnl]
		if !ok {
			return false
		}
		if vector[pos] != want {
			return false
		}
	}
	return true
}

// diagnosisSelector returns d[i] = P(given | state_i), the same
// selector-marginalization used to build a diagnose matrix, applied to
// a single ad-hoc patient row rather than the ingested table.
func (m *Model) diagnosisSelector(given diagnose.Row) []float64 {
	obsDense := m.observationMatrix.Get()
	if given == nil {
		out := make([]float64, m.States.Len())
		for i := range out {
			out[i] = 1
		}
		return out
	}
	column := diagnose.Build(obsDense, m.Observations, m.layout, []diagnose.Row{given})
	out := make([]float64, m.States.Len())
	for i := range out {
		out[i] = column.At(i, 0)
	}
	return out
}

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

// Package infer wires graph, modality, transition, observation, and
// diagnose together into the HMM/BN evolution, likelihood, and risk
// operations.
package infer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/imec-int/lnlspread/diagnose"
	"github.com/imec-int/lnlspread/graph"
	"github.com/imec-int/lnlspread/modality"
	"github.com/imec-int/lnlspread/observation"
	"github.com/imec-int/lnlspread/params"
	"github.com/imec-int/lnlspread/state"
	"github.com/imec-int/lnlspread/transition"
)

// Mode selects between HMM (time-aware) and BN (static,
// growth-and-time-free) evaluation.
type Mode int

const (
	ModeHMM Mode = iota
	ModeBN
)

// Model is the top-level wiring of one graph instance: its topology,
// modalities, diagnose-time distributions, ingested patients, and the
// parameter surface addressing all of the above. It owns the derived
// caches (transition matrix, observation matrix, diagnose matrices).
type Model struct {
	Graph      *graph.Graph
	Modalities *modality.Set
	Dist       *diagnose.Dict
	Patients   *diagnose.Table
	Params     *params.Table

	States       *state.List
	Observations *state.ObservationList

	transitionMatrix  *transition.Matrix
	observationMatrix *observation.Matrix
	layout            diagnose.Layout

	diagCache diagCache
}

type diagCache struct {
	matrices map[string]*mat.Dense
	bn       *mat.Dense
	modEpoch int
	gen      int
	built    bool
}

// NewModel wires a Model around g, modSet and dist. dist and modSet
// must already be populated with every modality/T-stage the caller
// intends to use; Model does not mutate their membership.
func NewModel(g *graph.Graph, modSet *modality.Set, dist *diagnose.Dict) *Model {
	cardinality := 2
	if g.IsTrinary() {
		cardinality = 3
	}
	states := state.NewStateList(cardinality, len(g.LNLs()))
	obsList := state.NewObservationList(len(g.LNLs()), modSet.Len())

	lnlIndex := map[string]int{}
	for i, idx := range g.LNLs() {
		lnlIndex[g.Nodes[idx].Name] = i
	}
	modIndex := map[string]int{}
	for i, name := range modSet.Names {
		modIndex[name] = i
	}

	paramTable := params.NewTable(g, dist)
	patients := diagnose.NewTable()

	return &Model{
		Graph:             g,
		Modalities:        modSet,
		Dist:              dist,
		Patients:          patients,
		Params:            paramTable,
		States:            states,
		Observations:      obsList,
		transitionMatrix:  transition.New(g, states),
		observationMatrix: observation.New(states, obsList, modSet),
		layout:            diagnose.Layout{LNLIndex: lnlIndex, ModalityIndex: modIndex},
	}
}

// IngestPatients replaces the model's patient table.
func (m *Model) IngestPatients(entries []diagnose.Entry) {
	m.Patients.Ingest(entries, m.Dist)
}

// Pi0 returns the t=0 state distribution: every LNL healthy.
func (m *Model) Pi0() []float64 {
	pi0 := make([]float64, m.States.Len())
	pi0[m.States.Index(make([]int, len(m.Graph.LNLs())))] = 1
	return pi0
}

// Evolve returns the (maxT+1) x S matrix Pi whose row t is pi_0 * T^t.
func (m *Model) Evolve(maxT int) *mat.Dense {
	size := m.States.Len()
	pi := mat.NewDense(maxT+1, size, nil)
	pi0 := m.Pi0()
	for t := 0; t <= maxT; t++ {
		tPow := m.transitionMatrix.Power(t)
		row := make([]float64, size)
		for j := 0; j < size; j++ {
			sum := 0.0
			for i := 0; i < size; i++ {
				sum += pi0[i] * tPow.At(i, j)
			}
			row[j] = sum
		}
		pi.SetRow(t, row)
	}
	return pi
}

// EvolveAt returns pi_t, the state distribution at a single time step.
func (m *Model) EvolveAt(t int) []float64 {
	size := m.States.Len()
	tPow := m.transitionMatrix.Power(t)
	pi0 := m.Pi0()
	out := make([]float64, size)
	for j := 0; j < size; j++ {
		sum := 0.0
		for i := 0; i < size; i++ {
			sum += pi0[i] * tPow.At(i, j)
		}
		out[j] = sum
	}
	return out
}

// bnVector returns pi_BN, length S: the static Bayesian-network
// probability of each state vector, growth and time removed.
func (m *Model) bnVector() []float64 {
	clone := m.Graph.Clone()
	lnls := clone.LNLs()
	out := make([]float64, m.States.Len())
	for i, vector := range m.States.Vectors {
		_ = clone.AssignStates(vector)
		prob := 1.0
		for _, lnlIdx := range lnls {
			prob *= clone.BNProb(lnlIdx)
		}
		out[i] = prob
	}
	return out
}

// ensureDiagnoseMatrices (re)builds the per-T-stage diagnose matrices
// and the BN-pooled matrix if the observation matrix's modality
// dependency or the patient table have changed since the last build.
func (m *Model) ensureDiagnoseMatrices() (map[string]*mat.Dense, *mat.Dense, error) {
	stages, err := m.Patients.Stages()
	if err != nil {
		return nil, nil, err
	}
	if m.diagCache.built && m.diagCache.modEpoch == m.Modalities.Epoch && m.diagCache.gen == m.Patients.Generation() {
		return m.diagCache.matrices, m.diagCache.bn, nil
	}

	obsDense := m.observationMatrix.Get()
	matrices := make(map[string]*mat.Dense, len(stages))
	var allRows []diagnose.Row
	for _, stage := range stages {
		rows, err := m.Patients.Rows(stage)
		if err != nil {
			return nil, nil, err
		}
		matrices[stage] = diagnose.Build(obsDense, m.Observations, m.layout, rows)
		allRows = append(allRows, rows...)
	}
	bn := diagnose.Build(obsDense, m.Observations, m.layout, allRows)

	m.diagCache = diagCache{matrices: matrices, bn: bn, modEpoch: m.Modalities.Epoch, gen: m.Patients.Generation(), built: true}
	return matrices, bn, nil
}

// piMarginal returns pmf_stage * Pi, the state distribution for stage
// marginalized over its diagnose-time pmf.
func (m *Model) piMarginal(stage string) ([]float64, error) {
	dist, ok := m.Dist.Get(stage)
	if !ok {
		return nil, fmt.Errorf("infer: no distribution configured for T-stage %q", stage)
	}
	pi := m.Evolve(m.Dist.MaxT)
	pmf := dist.Pmf()
	size := m.States.Len()
	out := make([]float64, size)
	rows, _ := pi.Dims()
	for t := 0; t < rows; t++ {
		w := pmf[t]
		if w == 0 {
			continue
		}
		row := pi.RawRowView(t)
		for s := 0; s < size; s++ {
			out[s] += w * row[s]
		}
	}
	return out, nil
}

// LogLikelihood computes the log-likelihood of the ingested patient
// table under mode, optionally first bulk-assigning givenParams. A
// ParameterRangeError from givenParams converts to -Inf rather than
// propagating; any other error from givenParams (e.g. an unknown key)
// propagates unchanged.
func (m *Model) LogLikelihood(givenParams map[string]float64, mode Mode) (float64, error) {
	if givenParams != nil {
		if err := m.Params.AssignParams(givenParams); err != nil {
			var rangeErr *params.ParameterRangeError
			if errors.As(err, &rangeErr) && !rangeErr.UnknownKey {
				return math.Inf(-1), nil
			}
			return 0, err
		}
	}
	switch mode {
	case ModeHMM:
		return m.logLikelihoodHMM()
	case ModeBN:
		return m.logLikelihoodBN()
	default:
		return 0, fmt.Errorf("infer: unknown mode %d", mode)
	}
}

// Likelihood is LogLikelihood exponentiated.
func (m *Model) Likelihood(givenParams map[string]float64, mode Mode) (float64, error) {
	logL, err := m.LogLikelihood(givenParams, mode)
	if err != nil {
		return 0, err
	}
	return math.Exp(logL), nil
}

func (m *Model) logLikelihoodHMM() (float64, error) {
	matrices, _, err := m.ensureDiagnoseMatrices()
	if err != nil {
		return 0, err
	}
	total := 0.0
	for stage, c := range matrices {
		piMarg, err := m.piMarginal(stage)
		if err != nil {
			return 0, err
		}
		_, numPatients := c.Dims()
		for j := 0; j < numPatients; j++ {
			p := 0.0
			for s, w := range piMarg {
				p += w * c.At(s, j)
			}
			if p <= 0 {
				return math.Inf(-1), nil
			}
			total += math.Log(p)
		}
	}
	return total, nil
}

func (m *Model) logLikelihoodBN() (float64, error) {
	_, bn, err := m.ensureDiagnoseMatrices()
	if err != nil {
		return 0, err
	}
	piBN := m.bnVector()
	total := 0.0
	_, numPatients := bn.Dims()
	for j := 0; j < numPatients; j++ {
		p := 0.0
		for s, w := range piBN {
			p += w * bn.At(s, j)
		}
		if p <= 0 {
			return math.Inf(-1), nil
		}
		total += math.Log(p)
	}
	return total, nil
}

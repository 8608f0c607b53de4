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

// Package diagnose holds the per-T-stage diagnose-time distributions,
// the ingested patient table, and the diagnose-matrix builder.
package diagnose

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is a pmf over diagnose times {0,...,MaxT}, either
// frozen (a fixed vector) or parametric (regenerated from a single
// scalar parameter on update). Both variants normalize to a
// non-negative vector of length MaxT+1.
type Distribution struct {
	maxT      int
	frozen    bool
	pmf       []float64
	param     float64 // parametric only: the binomial success probability
	paramName string  // parametric only: key suffix used in ParamKeys
}

// NewFrozen wraps a fixed pmf of length maxT+1. pmf must already be
// non-negative and sum to 1.
func NewFrozen(pmf []float64, maxT int) (*Distribution, error) {
	if err := validatePmf(pmf, maxT); err != nil {
		return nil, err
	}
	return &Distribution{maxT: maxT, frozen: true, pmf: append([]float64(nil), pmf...)}, nil
}

// NewParametric builds a binomial(MaxT, p) pmf, regenerated whenever
// Update is called. paramName is the distribution-parameter key
// suffix this distribution exposes through DistributionSource.
func NewParametric(paramName string, maxT int, p float64) (*Distribution, error) {
	d := &Distribution{maxT: maxT, paramName: paramName}
	if err := d.Update(p); err != nil {
		return nil, err
	}
	return d, nil
}

// Update regenerates a parametric distribution's pmf from a new
// success probability p. It is a no-op error for a frozen
// distribution.
func (d *Distribution) Update(p float64) error {
	if d.frozen {
		return fmt.Errorf("diagnose: cannot update a frozen distribution")
	}
	if p < 0 || p > 1 {
		return fmt.Errorf("diagnose: distribution parameter %q = %f out of range [0,1]", d.paramName, p)
	}
	binom := distuv.Binomial{N: float64(d.maxT), P: p}
	pmf := make([]float64, d.maxT+1)
	sum := 0.0
	for t := 0; t <= d.maxT; t++ {
		pmf[t] = binom.Prob(float64(t))
		sum += pmf[t]
	}
	if sum > 0 {
		for t := range pmf {
			pmf[t] /= sum
		}
	}
	d.param = p
	d.pmf = pmf
	return nil
}

// Pmf returns the current pmf, length MaxT+1.
func (d *Distribution) Pmf() []float64 {
	return d.pmf
}

// IsFrozen reports whether this distribution accepts Update calls.
func (d *Distribution) IsFrozen() bool {
	return d.frozen
}

func validatePmf(pmf []float64, maxT int) error {
	if len(pmf) != maxT+1 {
		return fmt.Errorf("diagnose: pmf has length %d, want %d", len(pmf), maxT+1)
	}
	sum := 0.0
	for _, p := range pmf {
		if p < 0 {
			return fmt.Errorf("diagnose: pmf entries must be non-negative")
		}
		sum += p
	}
	if sum < 1-1e-9 || sum > 1+1e-9 {
		return fmt.Errorf("diagnose: pmf must sum to 1, got %f", sum)
	}
	return nil
}

// Dict maps T-stage to its Distribution, sharing one MaxT horizon
// across every stage.
type Dict struct {
	MaxT   int
	stages map[string]*Distribution
	order  []string // insertion order, stable

	// Epoch counts changes made through Set and SetParam, mirroring
	// graph.Graph.Epoch. Package infer does not cache anything derived
	// from the pmfs; it reads them afresh on every likelihood/risk call.
	Epoch int
}

// NewDict creates an empty Dict sharing horizon maxT.
func NewDict(maxT int) *Dict {
	return &Dict{MaxT: maxT, stages: map[string]*Distribution{}}
}

// Set inserts or replaces the distribution for t-stage stage.
func (d *Dict) Set(stage string, dist *Distribution) error {
	if dist.maxT != d.MaxT {
		return fmt.Errorf("diagnose: distribution for stage %q has horizon %d, dict horizon is %d", stage, dist.maxT, d.MaxT)
	}
	if _, exists := d.stages[stage]; !exists {
		d.order = append(d.order, stage)
	}
	d.stages[stage] = dist
	d.Epoch++
	return nil
}

// Get returns the distribution configured for stage, if any.
func (d *Dict) Get(stage string) (*Distribution, bool) {
	dist, ok := d.stages[stage]
	return dist, ok
}

// Stages returns every configured T-stage, in insertion order.
func (d *Dict) Stages() []string {
	return append([]string(nil), d.order...)
}

// ParamKeys implements params.DistributionSource: one key per
// parametric stage, sorted for determinism.
func (d *Dict) ParamKeys() []string {
	var keys []string
	for _, stage := range d.order {
		if dist := d.stages[stage]; !dist.frozen {
			keys = append(keys, dist.paramName)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetParam implements params.DistributionSource.
func (d *Dict) GetParam(key string) (float64, bool) {
	for _, dist := range d.stages {
		if !dist.frozen && dist.paramName == key {
			return dist.param, true
		}
	}
	return 0, false
}

// SetParam implements params.DistributionSource.
func (d *Dict) SetParam(key string, value float64) error {
	for _, dist := range d.stages {
		if !dist.frozen && dist.paramName == key {
			if err := dist.Update(value); err != nil {
				return err
			}
			d.Epoch++
			return nil
		}
	}
	return fmt.Errorf("diagnose: unknown distribution parameter key %q", key)
}

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

// Package params implements the tunable parameter surface: every
// tunable scalar (edge spread probabilities, microscopic modifiers,
// growth probabilities, diagnose-time distribution parameters) is
// addressed by a string key enumerated from the graph's topology at
// construction time, as a Table rather than dynamically-created
// attributes.
package params

import (
	"fmt"
	"sort"

	"github.com/imec-int/lnlspread/graph"
)

// ParameterRangeError reports a probability or modifier outside [0,1],
// or an unknown key passed to a bulk assignment.
type ParameterRangeError struct {
	Key        string
	Value      float64
	Min, Max   float64
	UnknownKey bool
}

func (e *ParameterRangeError) Error() string {
	if e.UnknownKey {
		return fmt.Sprintf("params: unknown parameter key %q", e.Key)
	}
	return fmt.Sprintf("params: %q = %f out of range [%f, %f]", e.Key, e.Value, e.Min, e.Max)
}

// kind identifies what a key addresses.
type kind int

const (
	kindSpread kind = iota
	kindMicro
	kindGrowth
)

type entry struct {
	kind kind
	edge int // index into graph.Graph.Edges
}

// DistributionSource is the narrow interface package diagnose's
// DistributionDict satisfies, letting Table reach diagnose-time
// distribution parameters without importing package diagnose: the
// consumer owns the interface it calls through, so this package does
// not depend on diagnose.
type DistributionSource interface {
	ParamKeys() []string
	GetParam(key string) (float64, bool)
	SetParam(key string, value float64) error
}

// Table is the parameter surface over one graph (and, optionally, one
// diagnose-time DistributionSource). Keys are enumerated once, at
// construction, from the graph's topology.
type Table struct {
	g     *graph.Graph
	dist  DistributionSource
	keys  map[string]entry
	order []string // stable key order, used by AssignOrdered
}

// NewTable builds a Table over g. dist may be nil if no diagnose-time
// distributions have been configured yet; it can be supplied later via
// SetDistributionSource.
func NewTable(g *graph.Graph, dist DistributionSource) *Table {
	t := &Table{g: g, dist: dist, keys: map[string]entry{}}
	for _, eIdx := range g.SpreadEdges() {
		e := &g.Edges[eIdx]
		key := fmt.Sprintf("spread_%s_to_%s", g.Nodes[e.Parent].Name, g.Nodes[e.Child].Name)
		t.keys[key] = entry{kind: kindSpread, edge: eIdx}
		t.order = append(t.order, key)
	}
	for _, eIdx := range g.LNLSpreadEdges() {
		e := &g.Edges[eIdx]
		key := fmt.Sprintf("micro_%s_to_%s", g.Nodes[e.Parent].Name, g.Nodes[e.Child].Name)
		t.keys[key] = entry{kind: kindMicro, edge: eIdx}
		t.order = append(t.order, key)
	}
	for _, eIdx := range g.GrowthEdges() {
		e := &g.Edges[eIdx]
		key := fmt.Sprintf("growth_%s", g.Nodes[e.Child].Name)
		t.keys[key] = entry{kind: kindGrowth, edge: eIdx}
		t.order = append(t.order, key)
	}
	sort.Strings(t.order)
	return t
}

// SetDistributionSource attaches (or replaces) the diagnose-time
// distribution parameters exposed through this table.
func (t *Table) SetDistributionSource(dist DistributionSource) {
	t.dist = dist
}

// Keys returns every per-edge key followed by every distribution
// parameter key. The reserved aggregate keys "micro_mod" and "growth"
// are accepted by AssignParams but are not listed here.
func (t *Table) Keys() []string {
	keys := append([]string(nil), t.order...)
	if t.dist != nil {
		keys = append(keys, t.dist.ParamKeys()...)
	}
	return keys
}

// Get looks up a single parameter's current value.
func (t *Table) Get(key string) (float64, error) {
	if e, ok := t.keys[key]; ok {
		return t.getEntry(e), nil
	}
	if t.dist != nil {
		if v, ok := t.dist.GetParam(key); ok {
			return v, nil
		}
	}
	return 0, &ParameterRangeError{Key: key, UnknownKey: true}
}

func (t *Table) getEntry(e entry) float64 {
	edge := &t.g.Edges[e.edge]
	switch e.kind {
	case kindMicro:
		return edge.MicroMod
	default:
		return edge.SpreadProb
	}
}

// Set assigns a single parameter's value, validating and invalidating
// caches (via graph.Graph.Epoch / the distribution's own bookkeeping)
// on success.
func (t *Table) Set(key string, value float64) error {
	if e, ok := t.keys[key]; ok {
		return t.setEntry(key, e, value)
	}
	if t.dist != nil {
		if _, ok := t.dist.GetParam(key); ok {
			return t.dist.SetParam(key, value)
		}
	}
	return &ParameterRangeError{Key: key, UnknownKey: true}
}

func (t *Table) setEntry(key string, e entry, value float64) error {
	if value < 0 || value > 1 {
		return &ParameterRangeError{Key: key, Value: value, Min: 0, Max: 1}
	}
	switch e.kind {
	case kindMicro:
		return t.g.SetMicroMod(e.edge, value)
	default:
		return t.g.SetSpreadProb(e.edge, value)
	}
}

// GetParams returns every current parameter value, keyed by name.
func (t *Table) GetParams() map[string]float64 {
	result := make(map[string]float64, len(t.keys))
	for key, e := range t.keys {
		result[key] = t.getEntry(e)
	}
	if t.dist != nil {
		for _, key := range t.dist.ParamKeys() {
			if v, ok := t.dist.GetParam(key); ok {
				result[key] = v
			}
		}
	}
	return result
}

// AssignParams bulk-assigns every key in values atomically: either every
// value is applied, or (on the first range/unknown-key error) none are.
// The reserved aggregate keys "micro_mod" and "growth" set every
// LNL->LNL edge's MicroMod, respectively every growth edge's
// SpreadProb, to the same value.
func (t *Table) AssignParams(values map[string]float64) error {
	type plannedSet struct {
		key   string
		e     entry
		value float64
	}
	var plan []plannedSet
	var aggregateMicro, aggregateGrowth *float64
	var distSets []struct {
		key   string
		value float64
	}

	for key, value := range values {
		switch key {
		case "micro_mod":
			if value < 0 || value > 1 {
				return &ParameterRangeError{Key: key, Value: value, Min: 0, Max: 1}
			}
			v := value
			aggregateMicro = &v
			continue
		case "growth":
			if value < 0 || value > 1 {
				return &ParameterRangeError{Key: key, Value: value, Min: 0, Max: 1}
			}
			v := value
			aggregateGrowth = &v
			continue
		}
		if e, ok := t.keys[key]; ok {
			if value < 0 || value > 1 {
				return &ParameterRangeError{Key: key, Value: value, Min: 0, Max: 1}
			}
			plan = append(plan, plannedSet{key: key, e: e, value: value})
			continue
		}
		if t.dist != nil {
			if _, ok := t.dist.GetParam(key); ok {
				if value < 0 || value > 1 {
					return &ParameterRangeError{Key: key, Value: value, Min: 0, Max: 1}
				}
				distSets = append(distSets, struct {
					key   string
					value float64
				}{key, value})
				continue
			}
		}
		return &ParameterRangeError{Key: key, UnknownKey: true}
	}

	// All validation above happens before any mutation below, so a
	// failure anywhere leaves the model in its pre-call state.
	for _, p := range plan {
		if err := t.setEntry(p.key, p.e, p.value); err != nil {
			return err
		}
	}
	if aggregateMicro != nil {
		for _, eIdx := range t.g.LNLSpreadEdges() {
			if err := t.g.SetMicroMod(eIdx, *aggregateMicro); err != nil {
				return err
			}
		}
	}
	if aggregateGrowth != nil {
		for _, eIdx := range t.g.GrowthEdges() {
			if err := t.g.SetSpreadProb(eIdx, *aggregateGrowth); err != nil {
				return err
			}
		}
	}
	for _, d := range distSets {
		if err := t.dist.SetParam(d.key, d.value); err != nil {
			return err
		}
	}
	return nil
}

// AssignOrdered assigns parameters positionally, in Table's stable key
// order (spread/micro/growth edge keys sorted, then every distribution
// parameter key in the distribution source's own order), for callers
// that prefer a plain parameter vector over named keys.
func (t *Table) AssignOrdered(values ...float64) error {
	keys := t.Keys()
	if len(values) > len(keys) {
		return fmt.Errorf("params: %d positional values given, only %d keys known", len(values), len(keys))
	}
	assignment := make(map[string]float64, len(values))
	for i, v := range values {
		assignment[keys[i]] = v
	}
	return t.AssignParams(assignment)
}

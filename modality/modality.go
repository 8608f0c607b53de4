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

// Package modality holds diagnostic-modality confusion matrices: the
// column-stochastic P(observation | hidden state) tables that feed the
// observation matrix builder.
package modality

import "fmt"

// ShapeError reports a confusion matrix whose shape does not match the
// hidden-state cardinality it is meant to describe.
type ShapeError struct {
	Modality string
	Got      [2]int
	Want     [2]int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("modality %q: confusion matrix shape %v, want %v", e.Modality, e.Got, e.Want)
}

// Confusion is a column-stochastic P(observation | hidden) table: rows
// are observation levels (always 2: negative, positive), columns are
// hidden levels (2 for binary, 3 for trinary).
type Confusion struct {
	Rows int
	Cols int
	Data [][]float64 // Data[obs][hidden]
}

// NewConfusion validates matrix against the expected hidden-state
// cardinality (2 or 3) and wraps it as a Confusion.
func NewConfusion(name string, matrix [][]float64, hiddenCardinality int) (*Confusion, error) {
	rows := len(matrix)
	cols := 0
	if rows > 0 {
		cols = len(matrix[0])
	}
	if rows != 2 || cols != hiddenCardinality {
		return nil, &ShapeError{Modality: name, Got: [2]int{rows, cols}, Want: [2]int{2, hiddenCardinality}}
	}
	for _, row := range matrix {
		if len(row) != cols {
			return nil, &ShapeError{Modality: name, Got: [2]int{rows, len(row)}, Want: [2]int{2, hiddenCardinality}}
		}
	}
	for c := 0; c < cols; c++ {
		sum := 0.0
		for r := 0; r < rows; r++ {
			sum += matrix[r][c]
		}
		if sum < 1-1e-9 || sum > 1+1e-9 {
			return nil, fmt.Errorf("modality %q: column %d is not stochastic (sums to %f)", name, c, sum)
		}
	}
	data := make([][]float64, rows)
	for r := range matrix {
		data[r] = append([]float64(nil), matrix[r]...)
	}
	return &Confusion{Rows: rows, Cols: cols, Data: data}, nil
}

// At returns P(observation | hidden = hidden).
func (c *Confusion) At(observation, hidden int) float64 {
	return c.Data[observation][hidden]
}

// FromSpSn expands a (specificity, sensitivity) pair into a
// column-stochastic confusion matrix for the given hidden cardinality,
// per the built-in "clinical"/"pathological" conventions.
//
// clinical: specificity governs state 0 only; sensitivity is applied
// uniformly to every involved state (>=1).
//
// pathological: sensitivity distinguishes microscopic (state 1) from
// macroscopic (state 2) involvement in the trinary case; in the binary
// case it behaves like clinical.
func FromSpSn(name string, kind string, specificity, sensitivity float64, hiddenCardinality int) (*Confusion, error) {
	if specificity < 0 || specificity > 1 || sensitivity < 0 || sensitivity > 1 {
		return nil, fmt.Errorf("modality %q: specificity/sensitivity must be in [0,1]", name)
	}
	matrix := make([][]float64, 2)
	for i := range matrix {
		matrix[i] = make([]float64, hiddenCardinality)
	}
	// state 0: negative observed w.p. specificity, positive w.p. 1-specificity
	matrix[0][0] = specificity
	matrix[1][0] = 1 - specificity

	switch {
	case hiddenCardinality == 2:
		matrix[0][1] = 1 - sensitivity
		matrix[1][1] = sensitivity
	case hiddenCardinality == 3 && kind == "pathological":
		// microscopic (1) is harder to detect than macroscopic (2); a
		// pathological modality is taken to be perfectly sensitive to
		// macroscopic involvement and only `sensitivity` sensitive to
		// microscopic involvement.
		matrix[0][1] = 1 - sensitivity
		matrix[1][1] = sensitivity
		matrix[0][2] = 0
		matrix[1][2] = 1
	case hiddenCardinality == 3:
		// clinical: sensitivity applies uniformly to every involved state.
		matrix[0][1] = 1 - sensitivity
		matrix[1][1] = sensitivity
		matrix[0][2] = 1 - sensitivity
		matrix[1][2] = sensitivity
	default:
		return nil, &ShapeError{Modality: name, Got: [2]int{2, hiddenCardinality}, Want: [2]int{2, 2}}
	}

	return NewConfusion(name, matrix, hiddenCardinality)
}

// Clinical builds the built-in "clinical" modality.
func Clinical(specificity, sensitivity float64, hiddenCardinality int) (*Confusion, error) {
	return FromSpSn("clinical", "clinical", specificity, sensitivity, hiddenCardinality)
}

// Pathological builds the built-in "pathological" modality.
func Pathological(specificity, sensitivity float64, hiddenCardinality int) (*Confusion, error) {
	return FromSpSn("pathological", "pathological", specificity, sensitivity, hiddenCardinality)
}

// Set is a named collection of modalities sharing one hidden-state
// cardinality.
type Set struct {
	Cardinality int
	Names       []string // insertion order, stable
	Modalities  map[string]*Confusion

	// Epoch counts modality mutations. Package observation and the
	// diagnose-matrix cache in package infer compare it against the
	// epoch their cache was built at.
	Epoch int
}

// NewSet creates an empty modality Set for the given hidden cardinality.
func NewSet(hiddenCardinality int) *Set {
	return &Set{Cardinality: hiddenCardinality, Modalities: map[string]*Confusion{}}
}

// Add inserts or replaces a modality by name, validating its shape.
func (s *Set) Add(name string, c *Confusion) error {
	if c.Cols != s.Cardinality {
		return &ShapeError{Modality: name, Got: [2]int{c.Rows, c.Cols}, Want: [2]int{2, s.Cardinality}}
	}
	if _, exists := s.Modalities[name]; !exists {
		s.Names = append(s.Names, name)
	}
	s.Modalities[name] = c
	s.Epoch++
	return nil
}

// Len returns the number of configured modalities.
func (s *Set) Len() int {
	return len(s.Names)
}

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

// Package state enumerates the hidden state space and the observation
// space of a graph in a fixed, canonical positional order.
package state

import "github.com/imec-int/lnlspread/utils"

// List is the ordered enumeration of every hidden state vector for N
// LNLs with the given per-LNL cardinality (2 for binary, 3 for
// trinary). Entry i's digits, most significant first, are the base-
// cardinality expansion of i; this matches the recursive
// upper-triangular ordering the model requires.
type List struct {
	Cardinality int
	N           int
	Vectors     [][]int
}

// NewStateList builds the StateList for n LNLs of the given cardinality.
func NewStateList(cardinality, n int) *List {
	size := ipow(cardinality, n)
	vectors := make([][]int, size)
	for i := 0; i < size; i++ {
		vectors[i] = utils.ChangeBase(i, cardinality, n)
	}
	return &List{Cardinality: cardinality, N: n, Vectors: vectors}
}

// Len returns the number of state vectors, cardinality^N.
func (l *List) Len() int {
	return len(l.Vectors)
}

// Index returns the position of vector in the list, or -1 if the
// vector has the wrong length.
func (l *List) Index(vector []int) int {
	if len(vector) != l.N {
		return -1
	}
	return utils.IndexFromDigits(vector, l.Cardinality)
}

// ObservationList is the ordered enumeration of every binary
// observation vector over N*M (LNL, modality) pairs, laid out as
// [lnl0_mod0, lnl0_mod1, ..., lnl1_mod0, ...] to match the per-(lnl,
// modality) interpretation of an observation.
type ObservationList struct {
	NumLNLs       int
	NumModalities int
	Vectors       [][]int
}

// NewObservationList builds the ObservationList for numLNLs LNLs and
// numModalities diagnostic modalities.
func NewObservationList(numLNLs, numModalities int) *ObservationList {
	width := numLNLs * numModalities
	size := ipow(2, width)
	vectors := make([][]int, size)
	for i := 0; i < size; i++ {
		vectors[i] = utils.ChangeBase(i, 2, width)
	}
	return &ObservationList{NumLNLs: numLNLs, NumModalities: numModalities, Vectors: vectors}
}

// Len returns the number of observation vectors, 2^(N*M).
func (o *ObservationList) Len() int {
	return len(o.Vectors)
}

// At returns the (lnl, modality) entry of observation vector z.
func (o *ObservationList) At(z, lnl, modality int) int {
	return o.Vectors[z][lnl*o.NumModalities+modality]
}

// Index returns the position of a fully-specified observation vector
// (one entry per (lnl, modality) pair, in the same layout as Vectors).
func (o *ObservationList) Index(vector []int) int {
	if len(vector) != o.NumLNLs*o.NumModalities {
		return -1
	}
	return utils.IndexFromDigits(vector, 2)
}

func ipow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

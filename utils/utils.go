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

// Package utils holds small, dependency-free helpers shared by the rest
// of the model.
package utils

// ChangeBase expands i into digits base radix, most significant digit
// first, zero-padded to length. It is used to enumerate StateList and
// ObservationList entries from their positional index.
func ChangeBase(i, radix, length int) []int {
	digits := make([]int, length)
	for pos := length - 1; pos >= 0; pos-- {
		digits[pos] = i % radix
		i /= radix
	}
	return digits
}

// IndexFromDigits is the inverse of ChangeBase: it folds a sequence of
// base-radix digits (most significant first) back into an integer index.
func IndexFromDigits(digits []int, radix int) int {
	idx := 0
	for _, d := range digits {
		idx = idx*radix + d
	}
	return idx
}

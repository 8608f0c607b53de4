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
	"log"
	"sort"
)

// MissingDataError reports a read of patient data or diagnose matrices
// before the table has been ingested.
type MissingDataError struct {
	What string
}

func (e *MissingDataError) Error() string {
	return "diagnose: " + e.What + " not available: no patient data has been ingested"
}

// Row is one patient's diagnoses: modality name -> lnl name -> value.
// A nil value means the (modality, lnl) pair was not observed
// (missing); a non-nil value is the true/false observation.
type Row map[string]map[string]*bool

// Entry is one patient row tagged with its T-stage, the external,
// caller-facing shape patient data is ingested in.
type Entry struct {
	TStage string
	Row    Row
}

// Table is the ingested patient table, partitioned by T-stage. A
// fresh Ingest call replaces the whole table; copies made on a prior
// ingest are released.
type Table struct {
	byStage map[string][]Row
	stages  []string

	// generation counts successful Ingest calls. Package infer (via
	// the DiagnoseMatrix cache) compares it, together with the
	// modality Set's Epoch, to decide whether diagnose matrices need
	// rebuilding.
	generation int
	ingested   bool
}

// NewTable returns an empty, not-yet-ingested Table.
func NewTable() *Table {
	return &Table{}
}

// Ingest replaces the table's contents with entries. Rows whose
// T-stage has no configured distribution in dict are excluded and
// logged as a warning; dict may be nil, in which case every entry is
// kept (no distribution is configured against which to check).
func (t *Table) Ingest(entries []Entry, dict *Dict) {
	byStage := map[string][]Row{}
	var stages []string
	seen := map[string]bool{}
	skipped := map[string]int{}

	for _, e := range entries {
		if dict != nil {
			if _, ok := dict.Get(e.TStage); !ok {
				skipped[e.TStage]++
				continue
			}
		}
		if !seen[e.TStage] {
			seen[e.TStage] = true
			stages = append(stages, e.TStage)
		}
		byStage[e.TStage] = append(byStage[e.TStage], e.Row)
	}
	sort.Strings(stages)

	for stage, n := range skipped {
		log.Printf("diagnose: %d patient(s) in T-stage %q have no configured diagnose-time distribution; excluded", n, stage)
	}

	t.byStage = byStage
	t.stages = stages
	t.generation++
	t.ingested = true
}

// Stages returns every T-stage present in the ingested table, sorted.
func (t *Table) Stages() ([]string, error) {
	if !t.ingested {
		return nil, &MissingDataError{What: "patient_data"}
	}
	return append([]string(nil), t.stages...), nil
}

// Rows returns the rows for stage, or nil if that stage is absent.
func (t *Table) Rows(stage string) ([]Row, error) {
	if !t.ingested {
		return nil, &MissingDataError{What: "patient_data"}
	}
	return t.byStage[stage], nil
}

// Generation returns the ingest counter used for diagnose-matrix cache
// invalidation.
func (t *Table) Generation() int {
	return t.generation
}

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

import "github.com/imec-int/lnlspread/diagnose"

// MissingDataError reports a read of diagnose matrices or patient data
// before ingest. It is defined in package diagnose (diagnose.Table's
// Stages and Rows return it directly, and diagnose cannot import infer
// without a cycle) and aliased here since it is conceptually part of
// the inference kernel's error surface.
type MissingDataError = diagnose.MissingDataError

// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numeric holds the value types and contracts shared by the solvers:
// index-ranged vectors and matrices, the search box, the function capabilities
// the caller implements, and the status taxonomy every solver reports.
//
// Solvers own their working storage. Separate solver instances may run on
// separate goroutines, one instance must not be shared between goroutines.
package numeric

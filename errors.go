// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"errors"
	"fmt"
)

// ErrMissingObjective is returned by Configure when Problem.Func is nil.
var ErrMissingObjective = errors.New("ipm: objective function not specified")

// ErrMissingInitial is returned by Solve when x0 is nil or empty.
var ErrMissingInitial = errors.New("ipm: initial point not specified")

// ErrSingularSystem is returned when the linear algebra backing a solve
// step fails irreparably: the symmetric Cholesky/LU solve of the augmented
// system fails, a matrix solve in the L-BFGS direction fails, or the
// regularizer cannot reach the target inertia. Solve reports it through
// the SingularKKT status.
var ErrSingularSystem = errors.New("ipm: linear system is singular")

// ErrDimensionMismatch reports inconsistent problem dimensions detected at
// configuration time.
type ErrDimensionMismatch struct {
	Field string
	Want  int
	Got   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("ipm: %s has inconsistent dimension: want %d, got %d", e.Field, e.Want, e.Got)
}

// ErrNonFinite reports that an oracle evaluation returned NaN or an
// infinite value.
type ErrNonFinite struct {
	Where string
}

func (e *ErrNonFinite) Error() string {
	return fmt.Sprintf("ipm: non-finite value from %s", e.Where)
}

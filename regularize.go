// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// machineEps and sqrtEps stand in for the source's np.finfo(float64).eps and
// its square root, used throughout the regularizer's thresholds and
// fallback constants.
const machineEps = 2.220446049250313e-16

var sqrtEps = math.Sqrt(machineEps)

// regularizer holds the persistent Hessian diagonal shift delta, carried
// across Newton-direction solves within a solve call (§4.5, Data Model
// "delta" field).
type regularizer struct {
	delta float64
}

const maxRegularizeDoublings = 50

// apply mutates sys.H in place until it has inertia (D, M+N, 0), i.e. its
// negative eigenvalue count equals m+n. Returns ErrSingularSystem if the
// target inertia cannot be reached within maxRegularizeDoublings shifts.
func (r *regularizer) apply(sys *augmentedSystem, eta, mu, beta float64) error {
	d, n, m := sys.dims[0], sys.dims[1], sys.dims[2]
	target := m + n

	w := symmetricEigenvalues(sys.H)
	if rcond(w) > machineEps && negativeEigenCount(w) == target {
		return nil
	}

	eqOff := d + n
	if m > 0 && rcond(w) <= machineEps {
		shift := sqrtEps * eta * math.Pow(mu, beta)
		addDiag(sys.H, eqOff, m, -shift)
	}

	delta0 := sqrtEps
	if r.delta == 0 {
		r.delta = delta0
	} else {
		r.delta = math.Max(r.delta/2, delta0)
	}

	addDiag(sys.H, 0, d, r.delta)
	for i := 0; i < maxRegularizeDoublings; i++ {
		w = symmetricEigenvalues(sys.H)
		if negativeEigenCount(w) == target {
			return nil
		}
		addDiag(sys.H, 0, d, -r.delta)
		r.delta *= 10
		addDiag(sys.H, 0, d, r.delta)
	}
	return ErrSingularSystem
}

func addDiag(h *mat.SymDense, offset, size int, val float64) {
	for i := 0; i < size; i++ {
		h.SetSym(offset+i, offset+i, h.At(offset+i, offset+i)+val)
	}
}

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

// newtonDirection computes the exact-Hessian primal-dual step of §4.4: the
// augmented system is regularized to the target inertia and solved. The
// dual block's sign flip (to match the update convention lambda <-
// lambda + alpha*dz) is applied once, uniformly, by the caller — it is the
// same flip needed after the L-BFGS direction, not specific to this path.
func newtonDirection(o *oracle, e *evalState, reg *regularizer, d, m, n int, mu, eta, beta float64) ([]float64, error) {
	w, err := o.hessianOfLagrangian(e.x, e.lambda[:m], e.lambda[m:])
	if err != nil {
		return nil, err
	}
	sys := buildAugmentedSystem(e, w, d, m, n, mu)
	if err := reg.apply(sys, eta, mu, beta); err != nil {
		return nil, err
	}

	neg := make([]float64, len(sys.g))
	for i, v := range sys.g {
		neg[i] = -v
	}
	return symmetricSolve(sys.H, neg)
}

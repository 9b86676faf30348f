// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import "gonum.org/v1/gonum/mat"

// constraintJacobian builds B = [[J_E, J_I], [0, -I_n]] in (D+N) x (M+N),
// §4.3. It is used both as part of the augmented KKT system and, standing
// alone, in the line search's second-order correction and the L-BFGS
// "reduce" branch.
func constraintJacobian(e *evalState, d, m, n int) *mat.Dense {
	rows, cols := d+n, m+n
	b := mat.NewDense(rows, cols, nil)
	if m > 0 {
		for i := 0; i < d; i++ {
			for j := 0; j < m; j++ {
				b.Set(i, j, e.jacE.At(i, j))
			}
		}
	}
	if n > 0 {
		for i := 0; i < d; i++ {
			for j := 0; j < n; j++ {
				b.Set(i, m+j, e.jacI.At(i, j))
			}
		}
		for i := 0; i < n; i++ {
			b.Set(d+i, m+i, -1)
		}
	}
	return b
}

// augmentedSystem is the symmetric KKT matrix of §4.3 in block order
// [primal D, slack N, equality M, inequality N], together with the
// unscaled residual g in the same order used as the Newton right-hand
// side (note: the complementarity block here is lambdaI - mu/s, the
// unscaled form; the s-scaled export form lives only in KKTResidual).
type augmentedSystem struct {
	H    *mat.SymDense
	g    []float64
	dims [4]int // d, n, m, n (slack and inequality share size n)
}

func buildAugmentedSystem(e *evalState, w mat.Symmetric, d, m, n int, mu float64) *augmentedSystem {
	size := d + 2*n + m
	h := mat.NewSymDense(size, nil)

	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			h.SetSym(i, j, w.At(i, j))
		}
	}

	lambdaI := e.lambda[m:]
	sigmaOff := d
	for i := 0; i < n; i++ {
		sigma := lambdaI[i] / e.s[i]
		h.SetSym(sigmaOff+i, sigmaOff+i, sigma)
	}

	eqOff := d + n
	if m > 0 {
		for i := 0; i < d; i++ {
			for j := 0; j < m; j++ {
				h.SetSym(i, eqOff+j, e.jacE.At(i, j))
			}
		}
	}

	ineqOff := d + n + m
	if n > 0 {
		for i := 0; i < d; i++ {
			for j := 0; j < n; j++ {
				h.SetSym(i, ineqOff+j, e.jacI.At(i, j))
			}
		}
		for i := 0; i < n; i++ {
			h.SetSym(sigmaOff+i, ineqOff+i, -1)
		}
	}

	g := stackedResidual(e, d, m, n, mu)
	return &augmentedSystem{H: h, g: g, dims: [4]int{d, n, m, n}}
}

// stackedResidual assembles the unscaled KKT residual in block order
// [primal D, slack N, equality M, inequality N] — the right-hand side of
// the exact-Hessian Newton system and, negated, the "g" the compact L-BFGS
// direction solvers in §4.6 act on directly (they never form H).
func stackedResidual(e *evalState, d, m, n int, mu float64) []float64 {
	size := d + 2*n + m
	g := make([]float64, size)
	copy(g[:d], e.grad)
	if m > 0 {
		var jl mat.VecDense
		jl.MulVec(e.jacE, mat.NewVecDense(m, e.lambda[:m]))
		for i := 0; i < d; i++ {
			g[i] -= jl.AtVec(i)
		}
	}
	eqOff := d + n
	ineqOff := d + n + m
	if n > 0 {
		lambdaI := e.lambda[m:]
		var jl mat.VecDense
		jl.MulVec(e.jacI, mat.NewVecDense(n, lambdaI))
		for i := 0; i < d; i++ {
			g[i] -= jl.AtVec(i)
		}
		for i := 0; i < n; i++ {
			g[d+i] = lambdaI[i] - mu/e.s[i]
		}
	}
	copy(g[eqOff:eqOff+m], e.cE)
	for i := 0; i < n; i++ {
		g[ineqOff+i] = e.cI[i] - e.s[i]
	}
	return g
}

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// evalState bundles one oracle evaluation at (x, s, lambda), reused by the
// KKT assembler, the augmented system builder, and the line search so each
// only evaluates the oracle once per trial point.
type evalState struct {
	x, s, lambda []float64 // lambda is [lambdaE; lambdaI], length M+N

	f        float64
	grad     []float64
	cE, cI   []float64
	jacE     *mat.Dense // D x M
	jacI     *mat.Dense // D x N
}

func evaluate(o *oracle, x, s, lambda []float64) (*evalState, error) {
	f, err := o.objective(x)
	if err != nil {
		return nil, err
	}
	grad, err := o.gradient(x)
	if err != nil {
		return nil, err
	}
	cE, err := o.equality(x)
	if err != nil {
		return nil, err
	}
	cI, err := o.inequality(x)
	if err != nil {
		return nil, err
	}
	jacE, err := o.equalityJac(x)
	if err != nil {
		return nil, err
	}
	jacI, err := o.inequalityJac(x)
	if err != nil {
		return nil, err
	}
	return &evalState{
		x: x, s: s, lambda: lambda,
		f: f, grad: grad, cE: cE, cI: cI, jacE: jacE, jacI: jacI,
	}, nil
}

// kktResidual builds the four fixed-order residual blocks of §4.2. Block 2
// is exported complementarity-scaled (s .* lambdaI - mu) per the spec's
// export convention; the unscaled form (lambdaI - mu/s) is used internally
// by the direction solvers via stackedResidual.
func kktResidual(e *evalState, m, n int, mu float64) KKTResidual {
	d := len(e.grad)
	lambdaE := e.lambda[:m]
	lambdaI := e.lambda[m:]

	block1 := make([]float64, d)
	copy(block1, e.grad)
	if m > 0 {
		var jl mat.VecDense
		jl.MulVec(e.jacE, mat.NewVecDense(m, lambdaE))
		floats.SubTo(block1, block1, jl.RawVector().Data)
	}
	if n > 0 {
		var jl mat.VecDense
		jl.MulVec(e.jacI, mat.NewVecDense(n, lambdaI))
		floats.SubTo(block1, block1, jl.RawVector().Data)
	}

	block2 := make([]float64, n)
	for i := 0; i < n; i++ {
		block2[i] = e.s[i]*lambdaI[i] - mu
	}

	block3 := make([]float64, m)
	copy(block3, e.cE)

	block4 := make([]float64, n)
	for i := 0; i < n; i++ {
		block4[i] = e.cI[i] - e.s[i]
	}

	return KKTResidual{
		Stationarity:    block1,
		Complementarity: block2,
		Equality:        block3,
		Inequality:      block4,
	}
}

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

var errLineSearchExhausted = errors.New("ipm: line search exhausted backtracking budget")

// lineSearchResult carries the accepted trial point and the step lengths
// actually used, needed by the caller to advance lambda and to recompute
// the merit penalty update of §4.9's closing paragraph.
type lineSearchResult struct {
	e            *evalState
	alphaS       float64
	alphaLambda  float64
	usedCorrection bool
}

// lineSearch implements §4.9: Armijo backtracking with an optional
// second-order feasibility correction, against a fixed direction dz
// stacked [dx; ds; dlambdaE; dlambdaI].
func lineSearch(o *oracle, e0 *evalState, dz []float64, alphaS0, alphaLambda0 float64, d, m, n int, mu, nu, eta, tau float64, maxIter int) (*lineSearchResult, error) {
	dx := dz[:d]
	ds := dz[d : d+n]
	dlambda := dz[d+n:]

	phi0 := meritValue(e0.f, e0.s, e0.cE, e0.cI, mu, nu)
	phi0p := meritDirectionalDerivative(e0.grad, dx, e0.s, ds, e0.cE, e0.cI, mu, nu)
	violation0 := l1Violation(e0.cE, e0.cI, e0.s)

	alphaS := alphaS0
	alphaLambda := alphaLambda0

	for iter := 0; iter < maxIter; iter++ {
		xTrial := stepVec(e0.x, dx, alphaS)
		var sTrial []float64
		if n > 0 {
			sTrial = stepVec(e0.s, ds, alphaS)
		}
		lambdaTrial := stepVec(e0.lambda, dlambda, alphaLambda)

		eTrial, err := evaluate(o, xTrial, sTrial, lambdaTrial)
		if err != nil {
			return nil, err
		}
		phi := meritValue(eTrial.f, sTrial, eTrial.cE, eTrial.cI, mu, nu)
		if phi <= phi0+eta*alphaS*phi0p {
			return &lineSearchResult{e: eTrial, alphaS: alphaS, alphaLambda: alphaLambda}, nil
		}

		if l1Violation(eTrial.cE, eTrial.cI, sTrial) > violation0 {
			corrected, ok, err := secondOrderCorrection(o, eTrial, xTrial, sTrial, lambdaTrial, d, m, n, tau, phi0, eta, alphaS, phi0p, mu, nu)
			if err != nil {
				return nil, err
			}
			if ok {
				return corrected, nil
			}
		}

		alphaS *= tau
		alphaLambda *= tau
	}
	return nil, errLineSearchExhausted
}

// secondOrderCorrection implements the correction branch of §4.9: solve
// B^T*dz_p = -c_new (c_new stacked [c_E; c_I-s] at the trial point) via
// the clean least-squares form the design notes prescribe for the
// equality-only case, generalized here to every case since B^T is
// rectangular whenever D != M.
func secondOrderCorrection(o *oracle, eTrial *evalState, xTrial, sTrial, lambdaTrial []float64, d, m, n int, tau, phi0, eta, alphaS, phi0p, mu, nu float64) (*lineSearchResult, bool, error) {
	B := constraintJacobian(eTrial, d, m, n)
	Bt := matT(B)
	cNew := make([]float64, m+n)
	copy(cNew[:m], eTrial.cE)
	for i := 0; i < n; i++ {
		cNew[m+i] = eTrial.cI[i] - sTrial[i]
	}
	negC := make([]float64, len(cNew))
	floats.ScaleTo(negC, cNew, -1)
	dzp, err := leastSquares(Bt, negC)
	if err != nil {
		return nil, false, nil
	}

	alphaCorr := 1.0
	if n > 0 {
		alphaCorr = fractionToBoundary(sTrial, dzp[d:d+n], tau)
	}

	correctedX := stepVec(xTrial, dzp[:d], alphaCorr)
	var correctedS []float64
	if n > 0 {
		correctedS = stepVec(sTrial, dzp[d:d+n], alphaCorr)
	}

	eCorr, err := evaluate(o, correctedX, correctedS, lambdaTrial)
	if err != nil {
		return nil, false, err
	}
	phiCorr := meritValue(eCorr.f, correctedS, eCorr.cE, eCorr.cI, mu, nu)
	if phiCorr <= phi0+eta*alphaS*phi0p {
		return &lineSearchResult{e: eCorr, alphaS: alphaS, alphaLambda: alphaS, usedCorrection: true}, true, nil
	}
	return nil, false, nil
}

func stepVec(base, dir []float64, alpha float64) []float64 {
	if len(base) == 0 {
		return nil
	}
	out := make([]float64, len(base))
	floats.AddScaledTo(out, base, alpha, dir)
	return out
}

// updatePenalty implements the nu update closing §4.9, evaluated against
// the pre-step state e0 and the accepted primal+slack direction.
func updatePenalty(e0 *evalState, dz []float64, d, n int, mu, nu, rho float64) float64 {
	violation := l1Violation(e0.cE, e0.cI, e0.s)
	if violation == 0 {
		return nu
	}
	barrierGrad := make([]float64, d+n)
	copy(barrierGrad[:d], e0.grad)
	for i := 0; i < n; i++ {
		barrierGrad[d+i] = -mu / e0.s[i]
	}
	num := floats.Dot(barrierGrad, dz[:d+n])
	thresh := num / ((1 - rho) * violation)
	if thresh > nu {
		return thresh
	}
	return nu
}

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// meritValue evaluates the l1-exact-penalty-augmented barrier merit
// function of §4.1: phi = f - mu*sum(log(s)) + nu*(||c_E||_1 + ||c_I-s||_1).
func meritValue(f float64, s, cE, cI []float64, mu, nu float64) float64 {
	phi := f
	for _, si := range s {
		phi -= mu * math.Log(si)
	}
	var viol float64
	for _, c := range cE {
		viol += math.Abs(c)
	}
	for i, c := range cI {
		viol += math.Abs(c - s[i])
	}
	phi += nu * viol
	return phi
}

// meritDirectionalDerivative evaluates phi'(x,s;d) of §4.1, where dx, ds
// are the primal and slack components of the trial direction.
func meritDirectionalDerivative(grad, dx []float64, s, ds []float64, cE, cI []float64, mu, nu float64) float64 {
	phiPrime := floats.Dot(grad, dx)
	for i, si := range s {
		phiPrime -= mu * ds[i] / si
	}
	var viol float64
	for _, c := range cE {
		viol += math.Abs(c)
	}
	for i, c := range cI {
		viol += math.Abs(c - s[i])
	}
	phiPrime -= nu * viol
	return phiPrime
}

func l1Violation(cE, cI, s []float64) float64 {
	var v float64
	for _, c := range cE {
		v += math.Abs(c)
	}
	for i, c := range cI {
		v += math.Abs(c - s[i])
	}
	return v
}

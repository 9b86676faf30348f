// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import "gonum.org/v1/gonum/mat"

// initSlack implements §4.11's s0 default: elementwise max(c_I(x0), Ktol).
func initSlack(cI []float64, ktol float64) []float64 {
	s := make([]float64, len(cI))
	for i, c := range cI {
		if c > ktol {
			s[i] = c
		} else {
			s[i] = ktol
		}
	}
	return s
}

// initMultipliers implements §4.11's lambda0 default: the least-squares
// multiplier estimate pinv([J_E J_I]) * grad f(x0), with negative
// inequality multipliers clipped to Ktol.
func initMultipliers(grad []float64, jacE, jacI *mat.Dense, d, m, n int, ktol float64) ([]float64, error) {
	if m == 0 && n == 0 {
		return nil, nil
	}
	stacked := mat.NewDense(d, m+n, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < m; j++ {
			stacked.Set(i, j, jacE.At(i, j))
		}
		for j := 0; j < n; j++ {
			stacked.Set(i, m+j, jacI.At(i, j))
		}
	}
	lambda, err := pseudoinverseSolve(stacked, grad)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if lambda[m+i] < ktol {
			lambda[m+i] = ktol
		}
	}
	return lambda, nil
}

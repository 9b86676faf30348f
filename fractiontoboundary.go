// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

// fractionToBoundary implements §4.8: the largest alpha in [0,1] such that
// p + alpha*dp >= (1-tau)*p elementwise, for p strictly positive. The
// closed-form componentwise minimum is used, as the spec notes it is
// equivalent to and preferred over golden-section bisection.
func fractionToBoundary(p, dp []float64, tau float64) float64 {
	alpha := 1.0
	for i := range p {
		if dp[i] >= 0 {
			continue
		}
		bound := -tau * p[i] / dp[i]
		if bound < alpha {
			alpha = bound
		}
	}
	return alpha
}

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// lbfgsState is the compact L-BFGS representation of §3/§4.6/§4.7: a
// ring buffer of up to memory (dx, dg) column pairs plus the scalar B0
// multiplier zeta. Columns are stored oldest-first; the most recent
// update is always the last column.
type lbfgsState struct {
	zeta, zeta0 float64
	memory      int
	dim         int
	constrained bool
	curvPerturb bool

	sCols, yCols [][]float64 // each length dim, len(sCols) == len(yCols) <= memory

	failCount int
	failMax   int
}

func newLBFGSState(dim, memory int, zeta0 float64, constrained, curvPerturb bool) *lbfgsState {
	st := &lbfgsState{dim: dim, memory: memory, zeta0: zeta0, constrained: constrained, curvPerturb: curvPerturb, failMax: memory}
	st.reset()
	return st
}

func (st *lbfgsState) reset() {
	st.zeta = st.zeta0
	st.sCols = nil
	st.yCols = nil
	st.failCount = 0
}

func (st *lbfgsState) k() int { return len(st.sCols) }

func columnsToDense(cols [][]float64, dim int) *mat.Dense {
	k := len(cols)
	out := mat.NewDense(dim, k, nil)
	for j, col := range cols {
		for i := 0; i < dim; i++ {
			out.Set(i, j, col[i])
		}
	}
	return out
}

func dotMat(a, b [][]float64) *mat.Dense {
	k := len(a)
	out := mat.NewDense(k, k, nil)
	for i := range a {
		for j := range b {
			out.Set(i, j, dotVec(a[i], b[j]))
		}
	}
	return out
}

func diagOf(a *mat.Dense) []float64 {
	n, _ := a.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a.At(i, i)
	}
	return out
}

func strictlyLower(a *mat.Dense) *mat.Dense {
	n, _ := a.Dims()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}

func upperTriangular(a *mat.Dense) *mat.Dense {
	n, _ := a.Dims()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}

// direction implements §4.6. g is the negated stacked KKT residual (length
// dim+2n+m; just the negated gradient, length dim, when unconstrained),
// whose first dim+n entries are the primal and slack blocks; B is the
// constraint Jacobian of §4.3 (nil when unconstrained); lambdaI, sArr are the current inequality
// multipliers and slacks (nil/empty when n==0); eta, mu, beta feed the
// ill-conditioning correction shared with the exact-Hessian regularizer.
func (st *lbfgsState) direction(g []float64, B *mat.Dense, lambdaI, sArr []float64, m, n int, eta, mu, beta float64) ([]float64, error) {
	if m == 0 && n == 0 {
		return st.directionUnconstrained(g)
	}
	return st.directionConstrained(g, B, lambdaI, sArr, m, n, eta, mu, beta)
}

func (st *lbfgsState) directionUnconstrained(g []float64) ([]float64, error) {
	dz := scaleVec(st.zeta, g)
	k := st.k()
	if k == 0 {
		return dz, nil
	}

	S := columnsToDense(st.sCols, st.dim)
	Y := columnsToDense(st.yCols, st.dim)
	STY := dotMat(st.sCols, st.yCols)
	D := diagOf(STY)
	R := upperTriangular(STY)
	YY := dotMat(st.yCols, st.yCols)

	W := hstack(S, scaleMat(Y, st.zeta))
	wg := matTVec(W, g)
	top, bottom := wg[:k], wg[k:]

	negB, err := generalSolve(R, top)
	if err != nil {
		return nil, err
	}
	B := negVec(negB)

	DplusZetaYY := addMat(diagMat(D), scaleMat(YY, st.zeta))
	rhs1 := matVec(DplusZetaYY, B)
	Rt := matT(R)
	part1, err := generalSolve(Rt, rhs1)
	if err != nil {
		return nil, err
	}
	part2, err := generalSolve(Rt, bottom)
	if err != nil {
		return nil, err
	}
	A := negVec(addVec(part1, part2))

	correction := matVec(W, append(append([]float64{}, A...), B...))
	return addVec(dz, correction), nil
}

// directionConstrained ports pyipm.py's lbfgs_dir constrained branch: a
// "reduce" fast path when the constraint Jacobian B is square and
// well-conditioned, and a general BT*Adiag^-1*B path otherwise.
func (st *lbfgsState) directionConstrained(g []float64, B *mat.Dense, lambdaI, sArr []float64, m, n int, eta, mu, beta float64) ([]float64, error) {
	d := st.dim
	rows, cols := B.Dims()

	adiag := make([]float64, d+n)
	for i := 0; i < d; i++ {
		adiag[i] = st.zeta
	}
	for i := 0; i < n; i++ {
		adiag[d+i] = lambdaI[i] / (sArr[i] + machineEps)
	}

	reduce := false
	if rows == cols {
		w := symmetricEigenvaluesGeneral(B)
		if rcond(w) > machineEps {
			reduce = true
		}
	}

	k := st.k()
	gTop := g[:d+n]
	gBottom := g[d+n:]

	var Zg []float64
	var W *mat.Dense

	if reduce {
		v01, err := generalSolve(B, gTop)
		if err != nil {
			return nil, err
		}
		v02, err := generalSolve(matT(B), gBottom)
		if err != nil {
			return nil, err
		}
		Bv02, err := generalSolve(B, v02)
		if err != nil {
			return nil, err
		}
		v03 := make([]float64, d+n)
		for i := range v03 {
			v03[i] = -adiag[i] * Bv02[i]
		}
		Zg = append(append([]float64{}, v02...), addVec(v01, v03)...)

		if k > 0 {
			S := columnsToDense(st.sCols, d)
			Y := columnsToDense(st.yCols, d)
			W = hstack(scaleMat(S, st.zeta), Y)
			if n > 0 {
				W = vstack(W, mat.NewDense(n, 2*k, nil))
			}
			invBW, err := generalSolveMat(B, W)
			if err != nil {
				return nil, err
			}

			STY := dotMat(st.sCols, st.yCols)
			SS := dotMat(st.sCols, st.sCols)
			Dd := diagOf(STY)
			L := strictlyLower(STY)
			M0 := hstack(scaleMat(SS, st.zeta), L)
			M1 := hstack(matT(L), scaleMat(diagMat(Dd), -1))
			Minv := vstack(M0, M1)

			v10 := matTVec(W, Zg[:d+n])
			negV11, err := generalSolve(Minv, v10)
			if err != nil {
				return nil, err
			}
			v11 := negVec(negV11)

			X10 := vstack(mat.NewDense(d+n, 2*k, nil), invBW)
			XZg := matVec(X10, v11)
			return subVec(Zg, XZg), nil
		}
		return Zg, nil
	}

	BTinvA := matT(B)
	for i := 0; i < rows; i++ {
		for j := 0; j < d; j++ {
			BTinvA.Set(i, j, BTinvA.At(i, j)/st.zeta)
		}
	}
	if n > 0 {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				BTinvA.Set(m+i, d+j, 0)
			}
		}
		for i := 0; i < n; i++ {
			BTinvA.Set(m+i, d+i, -sArr[i]/(lambdaI[i]+machineEps))
		}
	}
	BTinvAB := matMul(BTinvA, B)
	if m > 0 {
		sub := mat.NewDense(m, m, nil)
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				sub.Set(i, j, BTinvAB.At(i, j))
			}
		}
		w := symmetricEigenvaluesGeneral(sub)
		if rcond(w) <= machineEps {
			shift := sqrtEps * eta * math.Pow(mu, beta)
			for i := 0; i < m; i++ {
				BTinvAB.Set(i, i, BTinvAB.At(i, i)+shift)
			}
		}
	}

	v00 := matVec(BTinvA, gTop)
	v01, err := generalSolve(BTinvAB, v00)
	if err != nil {
		return nil, err
	}
	v02 := make([]float64, d+n)
	for i := range v02 {
		v02[i] = gTop[i]/adiag[i] - matTVec(BTinvA, v01)[i]
	}
	negV03, err := generalSolve(BTinvAB, gBottom)
	if err != nil {
		return nil, err
	}
	v03 := negVec(negV03)
	v04 := negVec(matTVec(BTinvA, v03))
	Zg = append(addVec(v02, v04), addVec(v01, v03)...)

	if k > 0 {
		S := columnsToDense(st.sCols, d)
		Y := columnsToDense(st.yCols, d)
		W = hstack(scaleMat(S, st.zeta), Y)
		if n > 0 {
			W = vstack(W, mat.NewDense(n, 2*k, nil))
		}
		BTgmaW := scaleMat(matMul(matT(B), W), 1/st.zeta)
		negX00, err := generalSolveMat(BTinvAB, BTgmaW)
		if err != nil {
			return nil, err
		}
		X00 := scaleMat(negX00, -1)
		X01 := addMat(scaleMat(W, 1/st.zeta), matMul(matT(BTinvA), X00))
		X02 := matMul(matT(W), X01)

		STY := dotMat(st.sCols, st.yCols)
		SS := dotMat(st.sCols, st.sCols)
		Dd := diagOf(STY)
		L := strictlyLower(STY)
		M0 := hstack(scaleMat(SS, st.zeta), L)
		M1 := hstack(matT(L), scaleMat(diagMat(Dd), -1))
		Minv := vstack(M0, M1)

		v10 := matTVec(W, Zg[:d+n])
		v11, err := generalSolve(subMat(X02, Minv), v10)
		if err != nil {
			return nil, err
		}

		X10 := vstack(X01, scaleMat(X00, -1))
		XZg := matVec(X10, v11)
		return subVec(Zg, XZg), nil
	}
	return Zg, nil
}

// update implements §4.7: accepts or rejects the trial (dx, dg) pair and
// maintains the ring buffer of stored columns.
func (st *lbfgsState) update(dx, dg []float64) {
	sxg := dotVec(dx, dg)
	if sxg <= sqrtEps && st.curvPerturb {
		dg = st.perturbCurvature(dx, dg)
		sxg = dotVec(dx, dg)
	}
	var zetaNew float64
	if st.constrained {
		xx := dotVec(dx, dx)
		zetaNew = sxg / (xx + machineEps)
	} else {
		gg := dotVec(dg, dg)
		zetaNew = sxg / (gg + machineEps)
	}

	if sxg > sqrtEps && zetaNew > sqrtEps {
		st.zeta = zetaNew
		if len(st.sCols) >= st.memory {
			st.sCols = st.sCols[1:]
			st.yCols = st.yCols[1:]
		}
		st.sCols = append(st.sCols, append([]float64(nil), dx...))
		st.yCols = append(st.yCols, append([]float64(nil), dg...))
		st.failCount = 0
		return
	}

	st.failCount++
	if st.failCount > st.failMax && len(st.sCols) > 0 {
		st.reset()
	}
}

// perturbCurvature is the optional diagnostic routine ported from the
// source's lbfgs_curv_perturb. It nudges a would-be-rejected (dx, dg) pair
// onto the acceptance manifold by adding a multiple of dx to dg. Only
// reachable from update when curvPerturb is set (Settings.
// LBFGSCurvaturePerturbation), which defaults to false.
func (st *lbfgsState) perturbCurvature(dx, dg []float64) []float64 {
	sxg := dotVec(dx, dg)
	xx := dotVec(dx, dx)
	if sxg >= 0.2*xx || xx == 0 {
		return dg
	}
	theta := 0.8 * xx / (xx - sxg)
	out := make([]float64, len(dg))
	for i := range dg {
		out[i] = theta*dg[i] + (1-theta)*st.zeta*dx[i]
	}
	return out
}

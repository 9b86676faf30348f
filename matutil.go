// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Small dense-matrix assembly helpers used by the compact L-BFGS direction
// solver, where the natural expression of the algorithm is in terms of
// block concatenation (hstack/vstack) rather than index loops.

func hstack(a, b *mat.Dense) *mat.Dense {
	ar, ac := a.Dims()
	br, _ := b.Dims()
	if ar != br {
		panic("ipm: hstack row mismatch")
	}
	bc := 0
	if b != nil {
		_, bc = b.Dims()
	}
	out := mat.NewDense(ar, ac+bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			out.Set(i, j, a.At(i, j))
		}
		for j := 0; j < bc; j++ {
			out.Set(i, ac+j, b.At(i, j))
		}
	}
	return out
}

func vstack(a, b *mat.Dense) *mat.Dense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != bc {
		panic("ipm: vstack column mismatch")
	}
	out := mat.NewDense(ar+br, ac, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	for i := 0; i < br; i++ {
		for j := 0; j < bc; j++ {
			out.Set(ar+i, j, b.At(i, j))
		}
	}
	return out
}

func scaleMat(a *mat.Dense, k float64) *mat.Dense {
	var out mat.Dense
	out.Scale(k, a)
	return &out
}

func matVec(a *mat.Dense, v []float64) []float64 {
	_, c := a.Dims()
	r, _ := a.Dims()
	var out mat.VecDense
	out.MulVec(a, mat.NewVecDense(c, v))
	res := make([]float64, r)
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res
}

func matTVec(a *mat.Dense, v []float64) []float64 {
	r, c := a.Dims()
	var out mat.VecDense
	out.MulVec(a.T(), mat.NewVecDense(r, v))
	res := make([]float64, c)
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res
}

func matT(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(c, r, nil)
	out.Copy(a.T())
	return out
}

func matMul(a, b *mat.Dense) *mat.Dense {
	ar, _ := a.Dims()
	_, bc := b.Dims()
	out := mat.NewDense(ar, bc, nil)
	out.Mul(a, b)
	return out
}

// negVec, addVec, subVec, scaleVec and dotVec are thin wrappers over
// gonum/floats (Scale/AddTo/SubTo/Dot), matching the teacher's own use of
// floats for elementwise vector arithmetic elsewhere in the module
// (optimize/gradientdescent.go, optimize/cmaes.go) instead of hand-rolled
// loops. They return a fresh slice rather than mutating in place, since
// callers throughout this package treat direction vectors as immutable
// once built.

func negVec(v []float64) []float64 {
	out := make([]float64, len(v))
	floats.ScaleTo(out, v, -1)
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.AddTo(out, a, b)
	return out
}

func subVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.SubTo(out, a, b)
	return out
}

func scaleVec(k float64, v []float64) []float64 {
	out := make([]float64, len(v))
	floats.ScaleTo(out, v, k)
	return out
}

func dotVec(a, b []float64) float64 {
	return floats.Dot(a, b)
}

func diagMat(v []float64) *mat.Dense {
	n := len(v)
	out := mat.NewDense(n, n, nil)
	for i, x := range v {
		out.Set(i, i, x)
	}
	return out
}

func addMat(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Add(a, b)
	return &out
}

func subMat(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Sub(a, b)
	return &out
}

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"errors"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// maxLineSearchIter bounds the Armijo backtracking loop of §4.9. The spec
// defines no minimum step length; convergence is instead guaranteed by mu
// shrinking and nu growing across outer iterations, so this is only a
// runaway backstop.
const maxLineSearchIter = 64

// Settings configures a Solver. Zero-value fields are filled in by
// DefaultSettings; constructing Settings directly and leaving fields at
// their Go zero value will not produce sane defaults.
type Settings struct {
	Mu0, Nu0  float64
	Rho       float64
	Tau       float64
	Eta       float64
	Beta      float64

	InnerIterations int
	OuterIterations int
	Xtol            float64
	Ktol            float64

	UseLBFGS                   bool
	LBFGSMemory                int
	LBFGSZeta0                 float64
	LBFGSCurvaturePerturbation bool

	Precision Precision
	Verbosity int
	Logger    *log.Logger

	// Trace, if non-nil, is appended to once per inner iteration with the
	// central-path state at that point. It feeds the diagnostics
	// subpackage; Solve's own convergence logic never reads it.
	Trace *[]IterationRecord
}

// DefaultSettings returns the constants used throughout §4, matching the
// source's documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Mu0: 0.2, Nu0: 10.0,
		Rho: 0.1, Tau: 0.995, Eta: 1e-4, Beta: 0.4,
		InnerIterations: 20, OuterIterations: 10,
		Xtol: sqrtEps, Ktol: 1e-4,
		LBFGSMemory: 4, LBFGSZeta0: 1,
		Verbosity: 0,
	}
}

// Solver holds a configured problem and its persistent barrier/merit/
// regularization/L-BFGS state, reused across calls to Solve.
type Solver struct {
	prob     Problem
	settings Settings
	d, m, n  int

	mu float64 // last barrier parameter, used by KKT
}

// Configure validates prob against dim and stores settings, following the
// ConfigurationError family of §7: problems are rejected eagerly, before
// any oracle evaluation.
func Configure(prob Problem, dim int, settings Settings) (*Solver, error) {
	if prob.Func == nil {
		return nil, ErrMissingObjective
	}
	if dim <= 0 {
		return nil, &ErrDimensionMismatch{Field: "dim", Want: 1, Got: dim}
	}
	if prob.NumEquality > 0 && prob.EqualityFunc == nil {
		return nil, &ErrDimensionMismatch{Field: "EqualityFunc", Want: prob.NumEquality, Got: 0}
	}
	if prob.NumInequality > 0 && prob.InequalityFunc == nil {
		return nil, &ErrDimensionMismatch{Field: "InequalityFunc", Want: prob.NumInequality, Got: 0}
	}
	return &Solver{prob: prob, settings: settings, d: dim, m: prob.NumEquality, n: prob.NumInequality}, nil
}

// Solve runs the outer/inner barrier loop of §4.10 until all four KKT
// blocks fall below Ktol or OuterIterations is exhausted. s0 and lambda0
// may be nil, in which case §4.11's defaults are used.
func (sv *Solver) Solve(x0, s0, lambda0 []float64) (Result, error) {
	if len(x0) == 0 {
		return Result{}, ErrMissingInitial
	}
	start := time.Now()
	d, m, n := sv.d, sv.m, sv.n
	settings := sv.settings

	stats := &Stats{}
	oc := newOracle(sv.prob, d, stats)
	reg := &regularizer{}
	var lb *lbfgsState
	if settings.UseLBFGS {
		lb = newLBFGSState(d, settings.LBFGSMemory, settings.LBFGSZeta0, m+n > 0, settings.LBFGSCurvaturePerturbation)
	}

	x := append([]float64(nil), x0...)
	e0, err := evaluate(oc, x, nil, nil)
	if err != nil {
		return Result{}, err
	}

	s := s0
	if s == nil && n > 0 {
		s = initSlack(e0.cI, settings.Ktol)
	}
	lambda := lambda0
	if lambda == nil {
		lambda, err = initMultipliers(e0.grad, e0.jacE, e0.jacI, d, m, n, settings.Ktol)
		if err != nil {
			return Result{}, err
		}
	}

	mu := settings.Mu0
	if n == 0 {
		mu = settings.Ktol
	}
	nu := settings.Nu0

	status := NotTerminated
	var kkt KKTResidual
	var e *evalState
	stall := &stepConverge{Xtol: settings.Xtol, Iterations: 5}
	stall.init()

	sv.logf(settings, 1, "ipm: starting outer loop, mu=%.6g nu=%.6g", mu, nu)

outer:
	for outerIter := 0; outerIter < settings.OuterIterations; outerIter++ {
		stats.OuterIterations++
		for innerIter := 0; innerIter < settings.InnerIterations; innerIter++ {
			stats.InnerIterations++
			e, err = evaluate(oc, x, s, lambda)
			if err != nil {
				status = Failure
				break outer
			}
			kkt = kktResidual(e, m, n, mu)
			sv.logf(settings, 2, "ipm: outer %d inner %d f=%.6g", outerIter, innerIter, e.f)
			sv.logKKT(settings, kkt)

			if settings.Trace != nil {
				merit := meritValue(e.f, e.s, e.cE, e.cI, mu, nu)
				*settings.Trace = append(*settings.Trace, IterationRecord{
					Outer: outerIter, Inner: innerIter, Mu: mu, Nu: nu, Merit: merit, KKT: kkt,
				})
			}

			innerTol := math.Max(settings.Ktol, mu)
			if kkt.Converged(innerTol) {
				break
			}

			var dz []float64
			if settings.UseLBFGS {
				dz, err = sv.lbfgsDirection(lb, e, d, m, n, mu, settings.Eta, settings.Beta)
			} else {
				dz, err = newtonDirection(oc, e, reg, d, m, n, mu, settings.Eta, settings.Beta)
			}
			if err != nil {
				status = SingularKKT
				break outer
			}
			if m > 0 || n > 0 {
				for i := d + n; i < len(dz); i++ {
					dz[i] = -dz[i]
				}
			}

			alphaS := 1.0
			if n > 0 {
				alphaS = fractionToBoundary(s, dz[d:d+n], settings.Tau)
			}
			alphaLambda := 1.0
			if n > 0 {
				alphaLambda = fractionToBoundary(lambda[m:], dz[d+n+m:], settings.Tau)
			}

			lsResult, err := lineSearch(oc, e, dz, alphaS, alphaLambda, d, m, n, mu, nu, settings.Eta, settings.Tau, maxLineSearchIter)
			if err != nil {
				var nf *ErrNonFinite
				if errors.As(err, &nf) {
					status = Failure
				} else {
					status = LineSearchFailure
				}
				break outer
			}
			sv.logf(settings, 3, "ipm: step alphaS=%.4g alphaLambda=%.4g corrected=%t", lsResult.alphaS, lsResult.alphaLambda, lsResult.usedCorrection)

			if n > 0 || m > 0 {
				nu = updatePenalty(e, dz, d, n, mu, nu, settings.Rho)
			}

			if settings.UseLBFGS {
				sv.lbfgsUpdate(lb, oc, e, lsResult.e, lambda, d)
			}

			stepNorm := infNorm(subVec(lsResult.e.x, x))
			x = lsResult.e.x
			s = lsResult.e.s
			lambda = lsResult.e.lambda

			if stall.converged(stepNorm) {
				status = LineSearchFailure
				break outer
			}
		}

		if kkt.Converged(settings.Ktol) {
			status = Converged
			break outer
		}
		if n > 0 {
			mu = updateBarrier(s, lambda[m:], n, settings.Ktol)
		}
	}

	if status == NotTerminated {
		status = IterationLimit
	}
	stats.Runtime = time.Since(start)
	sv.mu = mu

	f := e.f
	sv.logf(settings, 0, "ipm: status=%v f=%.6g", status, f)
	if settings.Precision == Float32 {
		f = float64(float32(f))
	}
	return Result{
		X: roundPrecision(x, settings.Precision), S: roundPrecision(s, settings.Precision),
		Lambda: roundPrecision(lambda, settings.Precision),
		FuncValue: f, KKT: kkt, Stats: *stats, Status: status,
	}, nil
}

// KKT evaluates the four residual blocks at an arbitrary (x, s, lambda)
// using the barrier parameter from the most recent Solve call (or Ktol if
// Solve has not run).
func (sv *Solver) KKT(x, s, lambda []float64) (KKTResidual, error) {
	stats := &Stats{}
	oc := newOracle(sv.prob, sv.d, stats)
	e, err := evaluate(oc, x, s, lambda)
	if err != nil {
		return KKTResidual{}, err
	}
	mu := sv.mu
	if mu == 0 {
		mu = sv.settings.Ktol
	}
	return kktResidual(e, sv.m, sv.n, mu), nil
}

// updateBarrier implements §4.10's outer barrier parameter shrink.
func updateBarrier(s, lambdaI []float64, n int, ktol float64) float64 {
	if n == 0 {
		return ktol
	}
	minSL := math.Inf(1)
	var sumSL float64
	for i := range s {
		sl := s[i] * lambdaI[i]
		if sl < minSL {
			minSL = sl
		}
		sumSL += sl
	}
	xi := float64(n) * minSL / (sumSL + machineEps)
	factor := math.Min(0.05*(1-xi)/(xi+machineEps), 2.0)
	mu := 0.1 * factor * factor * factor * (sumSL / float64(n))
	if mu < 0 {
		mu = 0
	}
	return mu
}

func (sv *Solver) lbfgsDirection(lb *lbfgsState, e *evalState, d, m, n int, mu, eta, beta float64) ([]float64, error) {
	if m == 0 && n == 0 {
		g := negVec(e.grad)
		return lb.direction(g, nil, nil, nil, 0, 0, eta, mu, beta)
	}
	g := negVec(stackedResidual(e, d, m, n, mu))
	B := constraintJacobian(e, d, m, n)
	var lambdaI, sArr []float64
	if n > 0 {
		lambdaI = e.lambda[m:]
		sArr = e.s
	}
	return lb.direction(g, B, lambdaI, sArr, m, n, eta, mu, beta)
}

// lbfgsUpdate implements §4.7: it recomputes the gradient of the
// Lagrangian at the old and new primal point under the same (pre-step)
// multipliers to isolate the curvature actually sampled along dx.
func (sv *Solver) lbfgsUpdate(lb *lbfgsState, oc *oracle, oldE, newE *evalState, lambda []float64, d int) {
	gradOld, err := oc.gradient(oldE.x)
	if err != nil {
		return
	}
	gradNew, err := oc.gradient(newE.x)
	if err != nil {
		return
	}
	lagrOld := lagrangianGradient(gradOld, oldE, lambda, d)
	lagrNew := lagrangianGradient(gradNew, newE, lambda, d)

	dx := subVec(newE.x, oldE.x)
	dg := subVec(lagrOld, lagrNew)
	lb.update(dx, dg)
}

// lagrangianGradient approximates grad_x L(x, lambda) = grad f(x) -
// J_E(x)*lambdaE - J_I(x)*lambdaI using the Jacobians already captured in
// e (evaluated at e.x), which is exact for the L-BFGS update's purpose of
// isolating curvature along a fixed direction.
func lagrangianGradient(grad []float64, e *evalState, lambda []float64, d int) []float64 {
	out := append([]float64(nil), grad...)
	m := 0
	if e.jacE != nil {
		_, m = e.jacE.Dims()
		g := matVec(e.jacE, lambda[:m])
		floats.SubTo(out[:d], out[:d], g[:d])
	}
	if e.jacI != nil {
		_, n := e.jacI.Dims()
		g := matVec(e.jacI, lambda[m:m+n])
		floats.SubTo(out[:d], out[:d], g[:d])
	}
	return out
}

func (sv *Solver) logf(settings Settings, level int, format string, args ...interface{}) {
	if settings.Logger == nil || settings.Verbosity < level {
		return
	}
	settings.Logger.Printf(format, args...)
}

func (sv *Solver) logKKT(settings Settings, kkt KKTResidual) {
	if settings.Logger == nil || settings.Verbosity < 3 {
		return
	}
	a, b, c, d := kkt.Norms()
	settings.Logger.Printf("ipm: kkt norms stationarity=%.3g complementarity=%.3g equality=%.3g inequality=%.3g", a, b, c, d)
}

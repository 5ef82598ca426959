package optim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// relGradTol is the largest gradient entry, relative to 1+|f|, at which a
// gradient search that stopped early still counts as converged.
const relGradTol = 1e-6

// NelderMead is a derivative-free simplex search.
type NelderMead struct {
	MaxIterations int
	// SimplexSize is the initial simplex edge length in the unconstrained
	// search space. Zero uses gonum's default.
	SimplexSize float64
}

func (m *NelderMead) Name() string { return "nelder-mead" }

// Minimize runs the simplex search from x0.
func (m *NelderMead) Minimize(p Problem, x0 []float64) (*Result, error) {
	return run(p, x0, &optimize.NelderMead{SimplexSize: m.SimplexSize}, m.MaxIterations, false)
}

// LBFGS is a limited-memory quasi-Newton method. It uses Problem.Grad when
// present and central differences otherwise.
type LBFGS struct {
	MaxIterations int
}

func (m *LBFGS) Name() string { return "lbfgs" }

// Minimize runs L-BFGS from x0.
func (m *LBFGS) Minimize(p Problem, x0 []float64) (*Result, error) {
	return run(p, x0, &optimize.LBFGS{}, m.MaxIterations, true)
}

func run(p Problem, x0 []float64, method optimize.Method, maxIter int, needGrad bool) (*Result, error) {
	if err := checkProblem(p, x0); err != nil {
		return nil, err
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	dim := len(x0)
	t := newTransform(p.Bounds, dim)
	u0 := make([]float64, dim)
	t.fromBox(u0, x0)

	f := func(u []float64) float64 {
		x := make([]float64, dim)
		t.toBox(x, u)
		v := p.Func(x)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}
	prob := optimize.Problem{Func: f}
	if needGrad {
		prob.Grad = func(grad, u []float64) {
			if p.Grad == nil {
				fd.Gradient(grad, f, u, &fd.Settings{Formula: fd.Central})
				return
			}
			x := make([]float64, dim)
			t.toBox(x, u)
			p.Grad(grad, x)
			t.chain(grad, u)
		}
	}

	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 100},
	}
	res, err := optimize.Minimize(prob, u0, settings, method)
	if res == nil {
		return nil, fmt.Errorf("optim: %w", err)
	}

	out := &Result{
		X:           make([]float64, dim),
		F:           res.F,
		Status:      res.Status.String(),
		Iterations:  res.Stats.MajorIterations,
		Evaluations: res.Stats.FuncEvaluations,
	}
	t.toBox(out.X, res.X)
	out.Success = err == nil && converged(res.Status)
	switch {
	case out.Success:
	case needGrad && stationary(prob.Grad, res.X, res.F):
		out.Success = true
		out.Status = optimize.GradientThreshold.String()
	case err != nil:
		out.Status = fmt.Sprintf("%s: %v", res.Status, err)
	}
	return out, nil
}

// stationary reports whether the gradient at u is negligible relative to f.
func stationary(grad func(g, u []float64), u []float64, f float64) bool {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	g := make([]float64, len(u))
	grad(g, u)
	for _, v := range g {
		if math.IsNaN(v) {
			return false
		}
	}
	return floats.Norm(g, math.Inf(1)) <= relGradTol*(1+math.Abs(f))
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

// Package optim wraps gonum's local optimizers behind a small minimizer
// interface with per-parameter box constraints.
package optim

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrBadInitial indicates an initial guess that does not fit the problem.
	ErrBadInitial = errors.New("invalid initial guess")
	// ErrBadBounds indicates a malformed box constraint.
	ErrBadBounds = errors.New("invalid bounds")
)

// Bound is a closed box constraint for a single parameter. Either side may be
// infinite.
type Bound struct {
	Lo float64
	Hi float64
}

// Unbounded returns a bound that admits every real value.
func Unbounded() Bound { return Bound{Lo: math.Inf(-1), Hi: math.Inf(1)} }

// Lower returns a bound with only a lower limit.
func Lower(lo float64) Bound { return Bound{Lo: lo, Hi: math.Inf(1)} }

// Upper returns a bound with only an upper limit.
func Upper(hi float64) Bound { return Bound{Lo: math.Inf(-1), Hi: hi} }

// Between returns a two-sided bound.
func Between(lo, hi float64) Bound { return Bound{Lo: lo, Hi: hi} }

// Contains reports whether x lies inside the bound.
func (b Bound) Contains(x float64) bool { return x >= b.Lo && x <= b.Hi }

func (b Bound) String() string {
	return fmt.Sprintf("[%g, %g]", b.Lo, b.Hi)
}

// Problem is an objective to minimize. Grad is optional; methods that need a
// gradient fall back to finite differences when it is nil. A nil or short
// Bounds slice leaves the remaining parameters unbounded.
type Problem struct {
	Func   func(x []float64) float64
	Grad   func(grad, x []float64)
	Bounds []Bound
}

// Result is the outcome of a single minimization. Success is false when the
// method stopped on a limit or failed; the caller decides what to do with it.
type Result struct {
	X           []float64 `json:"x"`
	F           float64   `json:"f"`
	Success     bool      `json:"success"`
	Status      string    `json:"status"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
}

// Minimizer finds a local minimum of a Problem starting at x0. The returned
// error covers invalid input only; non-convergence is reported through
// Result.Success.
type Minimizer interface {
	Name() string
	Minimize(p Problem, x0 []float64) (*Result, error)
}

// DefaultMaxIterations caps major iterations when a minimizer is built with 0.
const DefaultMaxIterations = 5000

// New builds a minimizer from its configuration name.
func New(name string, maxIter int) (Minimizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nelder-mead", "neldermead", "simplex":
		return &NelderMead{MaxIterations: maxIter}, nil
	case "lbfgs", "l-bfgs":
		return &LBFGS{MaxIterations: maxIter}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q (use nelder-mead or lbfgs)", name)
	}
}

func checkProblem(p Problem, x0 []float64) error {
	if p.Func == nil {
		return errors.New("optim: problem has no objective")
	}
	if len(x0) == 0 {
		return fmt.Errorf("%w: empty parameter vector", ErrBadInitial)
	}
	if len(p.Bounds) > len(x0) {
		return fmt.Errorf("%w: %d bounds for %d parameters", ErrBadBounds, len(p.Bounds), len(x0))
	}
	for i, b := range p.Bounds {
		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || b.Lo >= b.Hi {
			return fmt.Errorf("%w: parameter %d has %s", ErrBadBounds, i, b)
		}
	}
	for i, x := range x0 {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: parameter %d is %g", ErrBadInitial, i, x)
		}
		if i < len(p.Bounds) {
			b := p.Bounds[i]
			// The reparameterization is undefined on the boundary itself.
			if x <= b.Lo || x >= b.Hi {
				return fmt.Errorf("%w: parameter %d = %g not strictly inside %s", ErrBadInitial, i, x, b)
			}
		}
	}
	return nil
}

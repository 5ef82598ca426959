// Package likelihood defines negative log-likelihood objectives for the
// normal, Poisson and binomial-logit models.
//
// Objectives are pure: the same parameters and data always give the same
// value, and nothing is mutated. They do not guard their own domain; an
// objective evaluated at sigma = 0, lambda = 0 with positive counts, or at a
// linear predictor extreme enough to push a success probability to exactly
// 0 or 1 returns a non-finite value. Keeping the search inside the domain is
// the job of the bounds each model advertises.
package likelihood

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/statloom/internal/optim"
)

var (
	// ErrInvalidParam reports a parameter vector outside the model's domain.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrInvalidData reports observations the model cannot describe.
	ErrInvalidData = errors.New("invalid data")
)

// Model is a parametric probability model bound to a fixed set of
// observations.
type Model interface {
	Name() string
	NumParams() int
	ParamNames() []string
	NumObs() int
	// Bounds are the box constraints the optimizer must respect.
	Bounds() []optim.Bound
	// InitialGuess is a feasible starting point for the search.
	InitialGuess() []float64
	// CheckParams rejects parameters outside the model's domain.
	CheckParams(params []float64) error
	NegLogLik(params []float64) float64
	// Gradient writes the gradient of NegLogLik at params into grad.
	Gradient(grad, params []float64)
}

// LogLik returns the (positive-sense) log-likelihood of params.
func LogLik(m Model, params []float64) float64 {
	return -m.NegLogLik(params)
}

// Validate checks the length of params and the model's own domain rules.
func Validate(m Model, params []float64) error {
	if len(params) != m.NumParams() {
		return fmt.Errorf("%w: %s expects %d parameters, got %d", ErrInvalidParam, m.Name(), m.NumParams(), len(params))
	}
	return m.CheckParams(params)
}

// Objective adapts a model to an optimizer problem.
func Objective(m Model) optim.Problem {
	return optim.Problem{
		Func:   m.NegLogLik,
		Grad:   m.Gradient,
		Bounds: m.Bounds(),
	}
}

func checkCounts(name string, ks []int) error {
	for i, k := range ks {
		if k < 0 {
			return fmt.Errorf("%w: %s[%d] = %d is negative", ErrInvalidData, name, i, k)
		}
	}
	return nil
}

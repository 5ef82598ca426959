package likelihood

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/statloom/internal/optim"
	"gonum.org/v1/gonum/stat/distuv"
)

// PoissonInitial is the starting rate for the search. Zero sits on the
// boundary of the feasible region, so start just inside it.
const PoissonInitial = 1e-3

// PoissonNLL is the negative log-likelihood of counts ks under Poisson(lambda):
// -sum(-lambda + k*log(lambda) - log(k!)).
func PoissonNLL(lambda float64, ks []int) float64 {
	d := distuv.Poisson{Lambda: lambda}
	var ll float64
	for _, k := range ks {
		ll += d.LogProb(float64(k))
	}
	return -ll
}

// Poisson fits a single rate to non-negative counts.
type Poisson struct {
	Counts []int
}

// NewPoisson validates the counts and returns the model.
func NewPoisson(counts []int) (*Poisson, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: poisson model needs at least one count", ErrInvalidData)
	}
	if err := checkCounts("counts", counts); err != nil {
		return nil, err
	}
	return &Poisson{Counts: counts}, nil
}

func (m *Poisson) Name() string { return "poisson" }
func (m *Poisson) NumParams() int { return 1 }
func (m *Poisson) ParamNames() []string { return []string{"lambda"} }
func (m *Poisson) NumObs() int { return len(m.Counts) }
func (m *Poisson) InitialGuess() []float64 { return []float64{PoissonInitial} }
func (m *Poisson) Bounds() []optim.Bound { return []optim.Bound{optim.Lower(0)} }

func (m *Poisson) CheckParams(params []float64) error {
	if !(params[0] >= 0) || math.IsInf(params[0], 0) {
		return fmt.Errorf("%w: lambda must be non-negative, got %g", ErrInvalidParam, params[0])
	}
	return nil
}

func (m *Poisson) NegLogLik(params []float64) float64 {
	return PoissonNLL(params[0], m.Counts)
}

// Gradient: d/dlambda = n - sum(k)/lambda.
func (m *Poisson) Gradient(grad, params []float64) {
	var sum float64
	for _, k := range m.Counts {
		sum += float64(k)
	}
	grad[0] = float64(len(m.Counts)) - sum/params[0]
}

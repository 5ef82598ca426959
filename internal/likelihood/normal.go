package likelihood

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/statloom/internal/optim"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinSigma is the lower bound placed on the normal scale parameter. It is
// strictly positive so the density never divides by zero.
const MinSigma = 1e-6

// NormalNLL is the negative log-likelihood of xs under N(mu, sigma^2).
func NormalNLL(mu, sigma float64, xs []float64) float64 {
	d := distuv.Normal{Mu: mu, Sigma: sigma}
	var ll float64
	for _, x := range xs {
		ll += d.LogProb(x)
	}
	return -ll
}

// Normal fits (mu, sigma) to real-valued samples.
type Normal struct {
	Samples []float64
}

// NewNormal validates the samples and returns the model.
func NewNormal(samples []float64) (*Normal, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: normal model needs at least one sample", ErrInvalidData)
	}
	for i, x := range samples {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: sample %d is %g", ErrInvalidData, i, x)
		}
	}
	return &Normal{Samples: samples}, nil
}

func (m *Normal) Name() string { return "normal" }
func (m *Normal) NumParams() int { return 2 }
func (m *Normal) ParamNames() []string { return []string{"mu", "sigma"} }
func (m *Normal) NumObs() int { return len(m.Samples) }
func (m *Normal) InitialGuess() []float64 { return []float64{0, 1} }

func (m *Normal) Bounds() []optim.Bound {
	return []optim.Bound{optim.Unbounded(), optim.Lower(MinSigma)}
}

func (m *Normal) CheckParams(params []float64) error {
	if math.IsNaN(params[0]) || math.IsInf(params[0], 0) {
		return fmt.Errorf("%w: mu = %g", ErrInvalidParam, params[0])
	}
	if !(params[1] > 0) || math.IsInf(params[1], 0) {
		return fmt.Errorf("%w: sigma must be positive, got %g", ErrInvalidParam, params[1])
	}
	return nil
}

func (m *Normal) NegLogLik(params []float64) float64 {
	return NormalNLL(params[0], params[1], m.Samples)
}

// Gradient of the normal NLL:
//
//	d/dmu    = -sum(x-mu) / sigma^2
//	d/dsigma = n/sigma - sum((x-mu)^2) / sigma^3
func (m *Normal) Gradient(grad, params []float64) {
	mu, sigma := params[0], params[1]
	var s1, s2 float64
	for _, x := range m.Samples {
		d := x - mu
		s1 += d
		s2 += d * d
	}
	n := float64(len(m.Samples))
	s2sq := sigma * sigma
	grad[0] = -s1 / s2sq
	grad[1] = n/sigma - s2/(s2sq*sigma)
}

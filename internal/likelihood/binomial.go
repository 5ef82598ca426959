package likelihood

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/statloom/internal/optim"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Logistic is the inverse logit link: 1 / (1 + exp(-eta)).
func Logistic(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

// BinomialLogitNLL is the negative log-likelihood of a binomial GLM with a
// logit link. Row i of x holds the covariates of observation i; its success
// probability is Logistic(x_i . beta) and its count of trials is
// successes[i] + failures[i]. The binomial coefficient is included.
func BinomialLogitNLL(beta []float64, x mat.Matrix, successes, failures []int) float64 {
	eta := linearPredictor(beta, x)
	var ll float64
	for i, k := range successes {
		n := k + failures[i]
		d := distuv.Binomial{N: float64(n), P: Logistic(eta.AtVec(i))}
		ll += d.LogProb(float64(k))
	}
	return -ll
}

func linearPredictor(beta []float64, x mat.Matrix) *mat.VecDense {
	r, _ := x.Dims()
	eta := mat.NewVecDense(r, nil)
	eta.MulVec(x, mat.NewVecDense(len(beta), beta))
	return eta
}

// BinomialLogit is a binomial GLM with a logit link and one unconstrained
// coefficient per covariate column.
type BinomialLogit struct {
	X         *mat.Dense
	Successes []int
	Failures  []int
	// Names labels the columns of X.
	Names []string
}

// NewBinomialLogit validates the design and counts. When names is nil the
// columns are labelled x0, x1, ...
func NewBinomialLogit(x *mat.Dense, successes, failures []int, names []string) (*BinomialLogit, error) {
	if x == nil || x.IsEmpty() {
		return nil, fmt.Errorf("%w: empty covariate matrix", ErrInvalidData)
	}
	r, c := x.Dims()
	if len(successes) != r || len(failures) != r {
		return nil, fmt.Errorf("%w: %d covariate rows but %d successes and %d failures", ErrInvalidData, r, len(successes), len(failures))
	}
	if err := checkCounts("successes", successes); err != nil {
		return nil, err
	}
	if err := checkCounts("failures", failures); err != nil {
		return nil, err
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := x.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: covariate (%d,%d) is %g", ErrInvalidData, i, j, v)
			}
		}
	}
	if names == nil {
		names = make([]string, c)
		for j := range names {
			names[j] = fmt.Sprintf("x%d", j)
		}
	}
	if len(names) != c {
		return nil, fmt.Errorf("%w: %d names for %d covariates", ErrInvalidData, len(names), c)
	}
	return &BinomialLogit{X: x, Successes: successes, Failures: failures, Names: names}, nil
}

func (m *BinomialLogit) Name() string { return "binomial-logit" }

func (m *BinomialLogit) NumParams() int {
	_, c := m.X.Dims()
	return c
}

func (m *BinomialLogit) ParamNames() []string { return m.Names }
func (m *BinomialLogit) NumObs() int { return len(m.Successes) }

func (m *BinomialLogit) Bounds() []optim.Bound {
	b := make([]optim.Bound, m.NumParams())
	for i := range b {
		b[i] = optim.Unbounded()
	}
	return b
}

func (m *BinomialLogit) InitialGuess() []float64 { return make([]float64, m.NumParams()) }

func (m *BinomialLogit) CheckParams(params []float64) error {
	for i, b := range params {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("%w: coefficient %s = %g", ErrInvalidParam, m.Names[i], b)
		}
	}
	return nil
}

func (m *BinomialLogit) NegLogLik(params []float64) float64 {
	return BinomialLogitNLL(params, m.X, m.Successes, m.Failures)
}

// Gradient of the binomial-logit NLL: -X^T (k - n*p).
func (m *BinomialLogit) Gradient(grad, params []float64) {
	eta := linearPredictor(params, m.X)
	resid := mat.NewVecDense(len(m.Successes), nil)
	for i, k := range m.Successes {
		n := float64(k + m.Failures[i])
		resid.SetVec(i, float64(k)-n*Logistic(eta.AtVec(i)))
	}
	g := mat.NewVecDense(len(grad), grad)
	g.MulVec(m.X.T(), resid)
	g.ScaleVec(-1, g)
}

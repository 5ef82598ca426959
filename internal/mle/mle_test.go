package mle

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/KaramelBytes/statloom/internal/likelihood"
	"github.com/KaramelBytes/statloom/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func normalSample(mu, sigma float64, n int, seed uint64) []float64 {
	d := distuv.Normal{Mu: mu, Sigma: sigma, Src: rand.NewPCG(seed, 1)}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = d.Rand()
	}
	return xs
}

func TestNormalRecoversParameters(t *testing.T) {
	cases := []struct{ mu, sigma float64 }{
		{0, 1},
		{2.5, 1.5},
		{-4, 0.6},
		{10, 3},
	}
	for i, tc := range cases {
		xs := normalSample(tc.mu, tc.sigma, 1000, uint64(100+i))
		m, err := likelihood.NewNormal(xs)
		require.NoError(t, err)
		for _, mz := range []optim.Minimizer{&optim.NelderMead{}, &optim.LBFGS{}} {
			fit, err := NewEstimator(mz, nil).Fit(m, nil)
			require.NoError(t, err)
			assert.True(t, fit.Success, "%s: %s", mz.Name(), fit.Status)
			// Four standard errors of the sample mean.
			tol := 4 * tc.sigma / math.Sqrt(float64(len(xs)))
			assert.InDelta(t, tc.mu, fit.Params[0], tol, "%s mu", mz.Name())
			assert.InDelta(t, tc.sigma, fit.Params[1], tol, "%s sigma", mz.Name())
			if tc.sigma <= 1 {
				assert.InDelta(t, tc.mu, fit.Params[0], 0.1, "%s mu", mz.Name())
				assert.InDelta(t, tc.sigma, fit.Params[1], 0.1, "%s sigma", mz.Name())
			}
			// The MLE of mu is the sample mean.
			assert.InDelta(t, stat.Mean(xs, nil), fit.Params[0], 1e-3)
		}
	}
}

func TestPoissonRateIsSampleMean(t *testing.T) {
	d := distuv.Poisson{Lambda: 3.2, Src: rand.NewPCG(5, 5)}
	ks := make([]int, 2000)
	var sum float64
	for i := range ks {
		ks[i] = int(d.Rand())
		sum += float64(ks[i])
	}
	m, err := likelihood.NewPoisson(ks)
	require.NoError(t, err)
	fit, err := NewEstimator(nil, nil).Fit(m, nil)
	require.NoError(t, err)
	assert.True(t, fit.Success, fit.Status)
	assert.InDelta(t, sum/float64(len(ks)), fit.Params[0], 1e-3)
	assert.Equal(t, -fit.NegLogLik, fit.LogLik)
	assert.Equal(t, "nelder-mead", fit.Method)
}

func TestBinomialLogitRecoversCoefficients(t *testing.T) {
	src := rand.NewPCG(21, 3)
	z := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	rows := 400
	beta := []float64{-0.5, 1.2}
	data := make([]float64, 0, rows*2)
	succ := make([]int, rows)
	fail := make([]int, rows)
	for i := 0; i < rows; i++ {
		x := z.Rand()
		data = append(data, 1, x)
		p := likelihood.Logistic(beta[0] + beta[1]*x)
		k := int(distuv.Binomial{N: 20, P: p, Src: src}.Rand())
		succ[i] = k
		fail[i] = 20 - k
	}
	m, err := likelihood.NewBinomialLogit(mat.NewDense(rows, 2, data), succ, fail, []string{"const", "x"})
	require.NoError(t, err)

	for _, mz := range []optim.Minimizer{&optim.NelderMead{}, &optim.LBFGS{}} {
		fit, err := NewEstimator(mz, nil).FitWithErrors(m, nil)
		require.NoError(t, err)
		assert.InDelta(t, beta[0], fit.Params[0], 0.1, mz.Name())
		assert.InDelta(t, beta[1], fit.Params[1], 0.1, mz.Name())
		require.Len(t, fit.StdErrors, 2)
		for _, se := range fit.StdErrors {
			assert.False(t, math.IsNaN(se))
			assert.Greater(t, se, 0.0)
			assert.Less(t, se, 0.2)
		}
		md := fit.Markdown()
		assert.Contains(t, md, "[PARAMETERS]")
		assert.Contains(t, md, "| const |")
	}
}

type stubMinimizer struct {
	calls int
	seen  optim.Problem
	res   optim.Result
}

func (s *stubMinimizer) Name() string { return "stub" }

func (s *stubMinimizer) Minimize(p optim.Problem, x0 []float64) (*optim.Result, error) {
	s.calls++
	s.seen = p
	r := s.res
	r.X = append([]float64(nil), x0...)
	return &r, nil
}

func TestFailedSearchIsSurfacedNotRetried(t *testing.T) {
	m, err := likelihood.NewNormal([]float64{1, 2, 3})
	require.NoError(t, err)
	stub := &stubMinimizer{res: optim.Result{F: 42, Success: false, Status: "IterationLimit"}}
	fit, err := NewEstimator(stub, nil).Fit(m, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.False(t, fit.Success)
	assert.Equal(t, "IterationLimit", fit.Status)
	assert.Equal(t, []float64{0, 1}, fit.Params)
	require.Len(t, stub.seen.Bounds, 2)
	assert.Equal(t, likelihood.MinSigma, stub.seen.Bounds[1].Lo)
	assert.NotNil(t, stub.seen.Grad)
}

func TestRealIterationLimit(t *testing.T) {
	m, err := likelihood.NewNormal(normalSample(5, 2, 200, 9))
	require.NoError(t, err)
	fit, err := NewEstimator(&optim.NelderMead{MaxIterations: 3}, nil).Fit(m, nil)
	require.NoError(t, err)
	assert.False(t, fit.Success)
	assert.True(t, strings.Contains(fit.Markdown(), "NOT converged"))
}

func TestInvalidInitialGuess(t *testing.T) {
	m, err := likelihood.NewNormal([]float64{1, 2, 3})
	require.NoError(t, err)
	e := NewEstimator(nil, nil)
	_, err = e.Fit(m, []float64{0})
	assert.True(t, errors.Is(err, likelihood.ErrInvalidParam))
	_, err = e.Fit(m, []float64{0, -1})
	assert.True(t, errors.Is(err, likelihood.ErrInvalidParam))
}

func TestInformationCriteria(t *testing.T) {
	f := &Fit{NumParams: 2, NumObs: 100, NegLogLik: 10}
	assert.InDelta(t, 24, f.AIC(), 1e-12)
	assert.InDelta(t, 2*math.Log(100)+20, f.BIC(), 1e-12)
}

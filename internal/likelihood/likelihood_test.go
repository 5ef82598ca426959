package likelihood

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNormalNLLKnownValue(t *testing.T) {
	assert.InDelta(t, 0.5*math.Log(2*math.Pi), NormalNLL(0, 1, []float64{0}), 1e-12)
	// sigma=2, x-mu=2: log(2) + 0.5 log(2 pi) + 0.5
	want := math.Log(2) + 0.5*math.Log(2*math.Pi) + 0.5
	assert.InDelta(t, want, NormalNLL(1, 2, []float64{3}), 1e-12)
}

func TestPoissonNLLKnownValue(t *testing.T) {
	// sum(lambda - k log lambda + log k!) for lambda=2, k={0,1,2}
	want := 6 - 3*math.Log(2) + math.Log(2)
	assert.InDelta(t, want, PoissonNLL(2, []int{0, 1, 2}), 1e-12)
}

func TestPoissonNLLMinimalAtTrueRate(t *testing.T) {
	src := rand.NewPCG(7, 11)
	d := distuv.Poisson{Lambda: 4, Src: src}
	ks := make([]int, 5000)
	for i := range ks {
		ks[i] = int(d.Rand())
	}
	atTrue := PoissonNLL(4, ks)
	for l := 1.0; l <= 8; l += 0.5 {
		if l == 4 {
			continue
		}
		assert.LessOrEqual(t, atTrue, PoissonNLL(l, ks), "lambda=%g", l)
	}
}

func TestBinomialLogitNLLAtZeroMatchesClosedForm(t *testing.T) {
	// (k=1, n=2) and (k=0, n=1): sum(-log C(n,k) - n log 0.5) = 2 log 2
	x := mat.NewDense(2, 2, []float64{
		1, 0.3,
		1, -1.7,
	})
	succ := []int{1, 0}
	fail := []int{1, 1}
	want := (-math.Log(2) - 2*math.Log(0.5)) + (-math.Log(1) - 1*math.Log(0.5))
	assert.InDelta(t, want, BinomialLogitNLL([]float64{0, 0}, x, succ, fail), 1e-12)
	assert.InDelta(t, 2*math.Log(2), want, 1e-12)

	m, err := NewBinomialLogit(x, succ, fail, []string{"const", "z"})
	require.NoError(t, err)
	assert.InDelta(t, want, m.NegLogLik(m.InitialGuess()), 1e-12)
	assert.InDelta(t, -want, LogLik(m, []float64{0, 0}), 1e-12)
}

func TestObjectivesAreNonFiniteAtDomainEdges(t *testing.T) {
	x := mat.NewDense(1, 1, []float64{1})
	// A linear predictor of 800 rounds the success probability to exactly 1.
	v := BinomialLogitNLL([]float64{800}, x, []int{0}, []int{1})
	assert.True(t, math.IsInf(v, 0) || math.IsNaN(v), "got %g", v)

	v = PoissonNLL(0, []int{3})
	assert.True(t, math.IsInf(v, 0) || math.IsNaN(v), "got %g", v)

	v = NormalNLL(0, 0, []float64{1})
	assert.True(t, math.IsInf(v, 0) || math.IsNaN(v), "got %g", v)
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	normal, err := NewNormal([]float64{1.2, -0.4, 2.5, 0.9, 3.1})
	require.NoError(t, err)
	poisson, err := NewPoisson([]int{0, 2, 5, 1, 3})
	require.NoError(t, err)
	x := mat.NewDense(4, 2, []float64{
		1, 0.5,
		1, -1.0,
		1, 2.0,
		1, 0.0,
	})
	binom, err := NewBinomialLogit(x, []int{3, 1, 9, 4}, []int{7, 9, 1, 6}, nil)
	require.NoError(t, err)

	cases := []struct {
		m      Model
		params []float64
	}{
		{normal, []float64{0.7, 1.3}},
		{poisson, []float64{1.9}},
		{binom, []float64{-0.2, 0.8}},
	}
	for _, tc := range cases {
		t.Run(tc.m.Name(), func(t *testing.T) {
			got := make([]float64, tc.m.NumParams())
			tc.m.Gradient(got, tc.params)
			want := fd.Gradient(nil, tc.m.NegLogLik, tc.params, &fd.Settings{Formula: fd.Central})
			for i := range want {
				assert.InDelta(t, want[i], got[i], 1e-5, "param %s", tc.m.ParamNames()[i])
			}
		})
	}
}

func TestValidation(t *testing.T) {
	_, err := NewPoisson([]int{1, -2})
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = NewPoisson(nil)
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = NewNormal([]float64{1, math.NaN()})
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = NewBinomialLogit(mat.NewDense(2, 1, []float64{1, 1}), []int{1}, []int{1, 1}, nil)
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = NewBinomialLogit(mat.NewDense(1, 1, []float64{1}), []int{1}, []int{-1}, nil)
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = NewBinomialLogit(mat.NewDense(1, 2, []float64{1, 2}), []int{1}, []int{1}, []string{"only-one"})
	assert.True(t, errors.Is(err, ErrInvalidData))

	normal, err := NewNormal([]float64{1, 2})
	require.NoError(t, err)
	assert.True(t, errors.Is(Validate(normal, []float64{0, 0}), ErrInvalidParam))
	assert.True(t, errors.Is(Validate(normal, []float64{0, -1}), ErrInvalidParam))
	assert.True(t, errors.Is(Validate(normal, []float64{0}), ErrInvalidParam))
	assert.NoError(t, Validate(normal, []float64{0, 1}))

	poisson, err := NewPoisson([]int{1})
	require.NoError(t, err)
	assert.True(t, errors.Is(Validate(poisson, []float64{-0.1}), ErrInvalidParam))
	assert.NoError(t, Validate(poisson, []float64{0}))
}

func TestModelDefaultsAreFeasible(t *testing.T) {
	normal, _ := NewNormal([]float64{1})
	poisson, _ := NewPoisson([]int{1})
	binom, _ := NewBinomialLogit(mat.NewDense(1, 3, []float64{1, 2, 3}), []int{1}, []int{0}, nil)
	for _, m := range []Model{normal, poisson, binom} {
		x0 := m.InitialGuess()
		require.NoError(t, Validate(m, x0), m.Name())
		for i, b := range m.Bounds() {
			assert.True(t, x0[i] > b.Lo && x0[i] < b.Hi, "%s param %d", m.Name(), i)
		}
	}
	assert.Equal(t, []float64{0, 1}, normal.InitialGuess())
	assert.Equal(t, []string{"x0", "x1", "x2"}, binom.ParamNames())
	assert.Equal(t, MinSigma, normal.Bounds()[1].Lo)
}

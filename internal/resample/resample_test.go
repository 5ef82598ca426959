package resample

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/statloom/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	treated   = []float64{5, 6, 7, 8}
	untreated = []float64{1, 2, 3, 4}
)

func TestPermutationPValueIsCountOverN(t *testing.T) {
	r := NewRunner(Options{Iterations: 100, Seed: 2024, Workers: 1}, nil)
	res, err := r.PermutationTest(treated, untreated, Greater)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Observed)
	assert.Equal(t, 100, res.N)
	assert.Len(t, res.Null, 100)
	// Mean differences of these integer samples are exact, so no tie tolerance
	// is needed to recount the extreme shuffles.
	extreme := 0
	for _, d := range res.Null {
		if d >= res.Observed {
			extreme++
		}
	}
	assert.Equal(t, extreme, res.Count)
	assert.Equal(t, float64(extreme)/100, res.PValue)
	assert.GreaterOrEqual(t, res.PValue, 0.0)
	assert.LessOrEqual(t, res.PValue, 1.0)
	// Only 1 of the 70 splits is as extreme as the observed one.
	assert.Less(t, res.PValue, 0.1)

	again, err := NewRunner(Options{Iterations: 100, Seed: 2024, Workers: 1}, nil).PermutationTest(treated, untreated, Greater)
	require.NoError(t, err)
	assert.Equal(t, res.Null, again.Null)
	assert.Equal(t, res.PValue, again.PValue)
}

func TestPermutationIndependentOfWorkers(t *testing.T) {
	base, err := NewRunner(Options{Iterations: 500, Seed: 7, Workers: 1}, nil).PermutationTest(treated, untreated, TwoSided)
	require.NoError(t, err)
	for _, w := range []int{2, 3, 8, 1000} {
		res, err := NewRunner(Options{Iterations: 500, Seed: 7, Workers: w}, nil).PermutationTest(treated, untreated, TwoSided)
		require.NoError(t, err)
		assert.Equal(t, base.Null, res.Null, "workers=%d", w)
		assert.Equal(t, base.Count, res.Count, "workers=%d", w)
	}
}

func TestPermutationAlternatives(t *testing.T) {
	opts := Options{Iterations: 300, Seed: 11, Workers: 1}
	greater, err := NewRunner(opts, nil).PermutationTest(treated, untreated, Greater)
	require.NoError(t, err)
	less, err := NewRunner(opts, nil).PermutationTest(treated, untreated, Less)
	require.NoError(t, err)
	two, err := NewRunner(opts, nil).PermutationTest(treated, untreated, TwoSided)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, two.Count, greater.Count)
	// Every shuffle is on one side of the observed value or tied with it.
	assert.GreaterOrEqual(t, greater.Count+less.Count, opts.Iterations)
	assert.Greater(t, less.PValue, 0.9)

	def, err := NewRunner(opts, nil).PermutationTest(treated, untreated, "")
	require.NoError(t, err)
	assert.Equal(t, Greater, def.Alternative)
	assert.Equal(t, greater.Count, def.Count)
	assert.Contains(t, greater.Markdown(), "[PERMUTATION TEST]")
}

func TestPermutationErrors(t *testing.T) {
	r := NewRunner(DefaultOptions(), nil)
	_, err := r.PermutationTest(nil, untreated, Greater)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = r.PermutationTest(treated, untreated, "sideways")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewRunner(Options{Iterations: 0}, nil).PermutationTest(treated, untreated, Greater)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestBootstrapInterval(t *testing.T) {
	xs, err := random.New(5).Draw(random.NormalDist{Mu: 10, Sigma: 2}, 200)
	require.NoError(t, err)
	res, err := NewRunner(Options{Iterations: 2000, Seed: 1, Workers: 1}, nil).Bootstrap(xs, Mean, 0.95)
	require.NoError(t, err)
	assert.Equal(t, Mean(xs), res.Estimate)
	assert.Less(t, res.Lower, res.Estimate)
	assert.Greater(t, res.Upper, res.Estimate)
	// The standard error of a mean of 200 draws with sigma 2 is about 0.14.
	assert.InDelta(t, 0.14, res.StdErr, 0.03)
	assert.InDelta(t, 2*1.96*res.StdErr, res.Upper-res.Lower, 0.1)
	assert.Equal(t, 2000, res.N)

	par, err := NewRunner(Options{Iterations: 2000, Seed: 1, Workers: 4}, nil).Bootstrap(xs, Mean, 0.95)
	require.NoError(t, err)
	assert.Equal(t, res, par)
	assert.Contains(t, res.Markdown(), "95% percentile interval")
}

func TestBootstrapConstantSample(t *testing.T) {
	res, err := NewRunner(Options{Iterations: 50, Seed: 3}, nil).Bootstrap([]float64{4, 4, 4}, Median, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Lower)
	assert.Equal(t, 4.0, res.Upper)
	assert.Equal(t, 0.0, res.StdErr)
}

func TestBootstrapErrors(t *testing.T) {
	r := NewRunner(DefaultOptions(), nil)
	_, err := r.Bootstrap(nil, Mean, 0.95)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	for _, lvl := range []float64{0, 1, 1.5, -0.2} {
		_, err = r.Bootstrap([]float64{1, 2}, Mean, lvl)
		assert.True(t, errors.Is(err, ErrInvalidInput), "level %g", lvl)
	}
}

func TestCoverageIsNearNominal(t *testing.T) {
	if testing.Short() {
		t.Skip("coverage simulation")
	}
	r := NewRunner(Options{Iterations: 1000, Seed: 99, Workers: 4}, nil)
	res, err := r.Coverage(random.NormalDist{Mu: 0, Sigma: 1}, 100, 1000, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, res.Coverage, 0.03)
	assert.InDelta(t, 0.95, res.TCoverage, 0.03)
	assert.Greater(t, res.MCStdErr, 0.0)
}

func TestCoverageIndependentOfWorkers(t *testing.T) {
	dist := random.PoissonDist{Lambda: 4}
	a, err := NewRunner(Options{Iterations: 100, Seed: 5, Workers: 1}, nil).Coverage(dist, 30, 20, 0.9)
	require.NoError(t, err)
	b, err := NewRunner(Options{Iterations: 100, Seed: 5, Workers: 3}, nil).Coverage(dist, 30, 20, 0.9)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 4.0, a.TrueMean)
	assert.GreaterOrEqual(t, a.Coverage, 0.0)
	assert.LessOrEqual(t, a.Coverage, 1.0)
	assert.Contains(t, a.Markdown(), "| bootstrap percentile |")
}

func TestNullPValues(t *testing.T) {
	r := NewRunner(Options{Iterations: 1, Seed: 8, Workers: 2}, nil)
	s, err := r.NullPValues(random.NormalDist{Mu: 0, Sigma: 1}, 20, 400, 0.05)
	require.NoError(t, err)
	require.Len(t, s.PValues, 400)
	for _, p := range s.PValues {
		require.True(t, p >= 0 && p <= 1)
	}
	assert.InDelta(t, 0.05, s.RawRate, 0.04)
	assert.LessOrEqual(t, s.Rejections["bonferroni"], s.Rejections["holm"])
	assert.LessOrEqual(t, s.Rejections["holm"], s.Rejections["bh"])
	assert.LessOrEqual(t, s.Rejections["bh"], s.Rejections["raw"])
	assert.Equal(t, 0, s.Degenerate)
	assert.Contains(t, s.Markdown(), "| bonferroni |")

	_, err = r.NullPValues(random.NormalDist{Mu: 0, Sigma: 1}, 1, 10, 0.05)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestStatistics(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	xs := []float64{3, 1, 2}
	Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
	assert.Equal(t, 2.0, Mean(xs))

	st, err := StatisticByName("median")
	require.NoError(t, err)
	assert.Equal(t, 2.0, st(xs))
	_, err = StatisticByName("mode")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	assert.Equal(t, 2.5, quantile([]float64{1, 2, 3, 4}, 0.5))
	assert.Equal(t, 1.0, quantile([]float64{1, 2, 3, 4}, 0))
}

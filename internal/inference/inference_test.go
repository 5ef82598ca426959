package inference

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/statloom/internal/mle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualLogLikGivesZeroStatistic(t *testing.T) {
	for _, ll := range []float64{-1234.5, -0.1, 0} {
		res, err := LikelihoodRatio(ll, ll, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.Statistic)
		assert.False(t, math.Signbit(res.Statistic))
		assert.Equal(t, 1.0, res.PValue)
		assert.Equal(t, 1, res.DF)
	}
}

func TestPValueDecreasesAsAlternativeImproves(t *testing.T) {
	prev := 1.0
	for gain := 0.25; gain <= 10; gain += 0.25 {
		res, err := LikelihoodRatio(-100, -100+gain, 1, 3)
		require.NoError(t, err)
		assert.InDelta(t, 2*gain, res.Statistic, 1e-12)
		assert.Less(t, res.PValue, prev, "gain %g", gain)
		assert.GreaterOrEqual(t, res.PValue, 0.0)
		prev = res.PValue
	}
}

func TestWorseAlternativeHasPValueOne(t *testing.T) {
	res, err := LikelihoodRatio(-10, -12, 1, 2)
	require.NoError(t, err)
	assert.Less(t, res.Statistic, 0.0)
	assert.Equal(t, 1.0, res.PValue)
}

func TestInvalidDegreesOfFreedom(t *testing.T) {
	for _, k := range [][2]int{{2, 2}, {3, 2}} {
		_, err := LikelihoodRatio(-10, -9, k[0], k[1])
		assert.True(t, errors.Is(err, ErrInvalidDF), "%v", k)
	}
	_, err := LikelihoodRatio(math.NaN(), -9, 1, 2)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestChiSquareSF(t *testing.T) {
	assert.InDelta(t, 0.05, ChiSquareSF(3.841458820694124, 1), 1e-9)
	// With 2 df the survival function is exp(-x/2).
	for _, x := range []float64{0.5, 1, 4, 9} {
		assert.InDelta(t, math.Exp(-x/2), ChiSquareSF(x, 2), 1e-12)
	}
	assert.Equal(t, 1.0, ChiSquareSF(0, 3))
	assert.Equal(t, 1.0, ChiSquareSF(-2, 3))
}

func TestCompareNested(t *testing.T) {
	null := &mle.Fit{Model: "binomial-logit", ParamNames: []string{"const"}, NumParams: 1, NumObs: 50, LogLik: -40, Success: true}
	alt := &mle.Fit{Model: "binomial-logit", ParamNames: []string{"const", "dose"}, NumParams: 2, NumObs: 50, LogLik: -37, Success: true}

	res, err := CompareNested(null, alt)
	require.NoError(t, err)
	assert.InDelta(t, 6, res.Statistic, 1e-12)
	assert.Equal(t, []string{"dose"}, res.Extra)
	assert.True(t, res.Converged)
	assert.True(t, strings.Contains(res.Markdown(), "Added terms: dose"))

	alt.Success = false
	res, err = CompareNested(null, alt)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Contains(t, res.Markdown(), "[NOTES]")

	other := &mle.Fit{Model: "binomial-logit", ParamNames: []string{"const", "age"}, NumParams: 2, NumObs: 50}
	_, err = CompareNested(&mle.Fit{Model: "binomial-logit", ParamNames: []string{"dose"}, NumParams: 1, NumObs: 50}, other)
	assert.True(t, errors.Is(err, ErrNotNested))

	_, err = CompareNested(alt, alt)
	assert.True(t, errors.Is(err, ErrNotNested))

	short := &mle.Fit{Model: "binomial-logit", ParamNames: []string{"const"}, NumParams: 1, NumObs: 49}
	_, err = CompareNested(short, alt)
	assert.True(t, errors.Is(err, ErrNotNested))
}

func TestAdjustments(t *testing.T) {
	ps := []float64{0.01, 0.04, 0.03, 0.005}
	cases := []struct {
		m    Method
		want []float64
	}{
		{Bonferroni, []float64{0.04, 0.16, 0.12, 0.02}},
		{Holm, []float64{0.03, 0.06, 0.06, 0.02}},
		{BH, []float64{0.02, 0.04, 0.04, 0.02}},
	}
	for _, tc := range cases {
		got, err := Adjust(tc.m, ps)
		require.NoError(t, err, tc.m)
		require.Len(t, got, len(ps))
		for i := range got {
			assert.InDelta(t, tc.want[i], got[i], 1e-12, "%s[%d]", tc.m, i)
			assert.GreaterOrEqual(t, got[i], ps[i])
		}
	}

	capped, err := AdjustBonferroni([]float64{0.6, 0.9})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, capped)

	_, err = AdjustHolm([]float64{0.1, 1.5})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = Adjust("sidak", ps)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	assert.Equal(t, []bool{true, false, true, true}, Reject(ps, 0.03))
}

func TestTInterval(t *testing.T) {
	iv, err := TInterval([]float64{1, 2, 3, 4, 5}, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 3, iv.Estimate, 1e-12)
	// t(0.975, 4) = 2.776445, s = sqrt(2.5)
	half := 2.776445 * math.Sqrt(2.5) / math.Sqrt(5)
	assert.InDelta(t, 3-half, iv.Lower, 1e-4)
	assert.InDelta(t, 3+half, iv.Upper, 1e-4)
	assert.True(t, iv.Contains(3))
	assert.False(t, iv.Contains(10))

	_, err = TInterval([]float64{1}, 0.95)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = TInterval([]float64{1, 2}, 1)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestWelchT(t *testing.T) {
	res, err := WelchT([]float64{1, 2, 3, 4, 5}, []float64{3, 4, 5, 6, 7})
	require.NoError(t, err)
	assert.InDelta(t, -2, res.T, 1e-12)
	assert.InDelta(t, 8, res.DF, 1e-12)
	assert.InDelta(t, 0.080516, res.PValue, 1e-4)

	_, err = WelchT([]float64{1, 1}, []float64{2, 2})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

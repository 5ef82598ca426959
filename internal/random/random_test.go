package random

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestStreamsAreReproducible(t *testing.T) {
	a := Stream(42, 7)
	b := Stream(42, 7)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}

	// Creating other streams first does not change stream 7.
	_ = Stream(42, 3).Float64()
	c := Stream(42, 7)
	d := Stream(42, 7)
	assert.Equal(t, c.IntN(1000), d.IntN(1000))
}

func TestStreamsDiffer(t *testing.T) {
	a, b := Stream(1, 0), Stream(1, 1)
	same := 0
	for i := 0; i < 50; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 50)
	assert.NotEqual(t, New(1).Float64(), Stream(1, 0).Float64())
}

func TestShuffleIsPermutation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	orig := append([]float64(nil), xs...)
	New(3).Shuffle(xs)
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	assert.Equal(t, orig, sorted)
}

func TestChoiceDrawsFromInput(t *testing.T) {
	xs := []float64{10, 20, 30}
	got := New(9).Choice(xs, 200)
	require.Len(t, got, 200)
	seen := map[float64]int{}
	for _, v := range got {
		seen[v]++
	}
	assert.Len(t, seen, 3)
	for v := range seen {
		assert.Contains(t, xs, v)
	}
}

func TestDrawMatchesDistribution(t *testing.T) {
	s := New(11)
	xs, err := s.Draw(NormalDist{Mu: 5, Sigma: 2}, 5000)
	require.NoError(t, err)
	mean, sd := stat.MeanStdDev(xs, nil)
	assert.InDelta(t, 5, mean, 0.1)
	assert.InDelta(t, 2, sd, 0.1)

	ks, err := s.Draw(PoissonDist{Lambda: 3}, 5000)
	require.NoError(t, err)
	for _, k := range ks {
		require.Equal(t, float64(int(k)), k)
		require.GreaterOrEqual(t, k, 0.0)
	}
	assert.InDelta(t, 3, stat.Mean(ks, nil), 0.1)

	_, err = s.Draw(PoissonDist{Lambda: 3}, 0)
	assert.True(t, errors.Is(err, ErrInvalidDistribution))
}

func TestParseDistribution(t *testing.T) {
	cases := []struct {
		in   string
		want Distribution
	}{
		{"normal:0,1", NormalDist{Mu: 0, Sigma: 1}},
		{"normal", NormalDist{Mu: 0, Sigma: 1}},
		{"Gaussian: 2.5, 0.5", NormalDist{Mu: 2.5, Sigma: 0.5}},
		{"poisson:3", PoissonDist{Lambda: 3}},
		{"exp:2", ExponentialDist{Rate: 2}},
	}
	for _, tc := range cases {
		got, err := ParseDistribution(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	assert.InDelta(t, 0.5, ExponentialDist{Rate: 2}.Mean(), 1e-12)
	assert.Equal(t, "poisson:3", PoissonDist{Lambda: 3}.String())

	for _, bad := range []string{"normal:0", "normal:0,-1", "poisson", "poisson:-2", "cauchy:0,1", "normal:a,b"} {
		_, err := ParseDistribution(bad)
		assert.True(t, errors.Is(err, ErrInvalidDistribution), bad)
	}
}

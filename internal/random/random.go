// Package random provides seeded, reproducible random streams and the
// distributions drawn from them.
package random

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidDistribution reports an unknown or malformed distribution.
var ErrInvalidDistribution = errors.New("invalid distribution")

// Source is a PCG-backed generator. It is not safe for concurrent use; give
// each goroutine its own stream.
type Source struct {
	src rand.Source
	rng *rand.Rand
}

// New returns the base stream for a seed.
func New(seed uint64) *Source {
	return newSource(seed, 0)
}

// Stream returns a generator for iteration i of a seed. The seed and i+1 are
// the two PCG state words, so every (seed, i) has its own starting state and
// always yields the same sequence, regardless of which goroutine uses it or
// in what order streams are created.
func Stream(seed uint64, i int) *Source {
	return newSource(seed, uint64(i)+1)
}

func newSource(seed, stream uint64) *Source {
	src := rand.NewPCG(seed, stream)
	return &Source{src: src, rng: rand.New(src)}
}

// Src exposes the underlying source for gonum distributions.
func (s *Source) Src() rand.Source { return s.src }

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Uint64 returns a uniform 64-bit value, used to seed nested runs.
func (s *Source) Uint64() uint64 { return s.rng.Uint64() }

// IntN returns a uniform value in [0, n).
func (s *Source) IntN(n int) int { return s.rng.IntN(n) }

// Shuffle permutes xs in place.
func (s *Source) Shuffle(xs []float64) {
	s.rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// Choice draws n values from xs uniformly with replacement.
func (s *Source) Choice(xs []float64, n int) []float64 {
	out := make([]float64, n)
	s.ChoiceInto(out, xs)
	return out
}

// ChoiceInto fills dst with values drawn from xs with replacement.
func (s *Source) ChoiceInto(dst, xs []float64) {
	for i := range dst {
		dst[i] = xs[s.rng.IntN(len(xs))]
	}
}

// Draw returns n values from dist.
func (s *Source) Draw(dist Distribution, n int) ([]float64, error) {
	if dist == nil {
		return nil, fmt.Errorf("%w: nil distribution", ErrInvalidDistribution)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample size %d", ErrInvalidDistribution, n)
	}
	out := make([]float64, n)
	dist.Fill(s.src, out)
	return out, nil
}

// Package resample implements Monte Carlo procedures driven by seeded
// streams: permutation tests, bootstrap intervals and simulation studies.
//
// Iteration i always draws from random.Stream(seed, i), so a result depends
// only on the inputs and the seed, never on the number of workers.
package resample

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/statloom/internal/random"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidInput reports empty data, a bad level or a bad iteration count.
var ErrInvalidInput = errors.New("invalid resampling input")

// DefaultIterations is the number of resamples when none is configured.
const DefaultIterations = 1000

// Options controls a resampling run.
type Options struct {
	Iterations int
	Seed       uint64
	Workers    int
}

// DefaultOptions returns 1000 sequential iterations with seed 42.
func DefaultOptions() Options {
	return Options{Iterations: DefaultIterations, Seed: 42, Workers: 1}
}

// Statistic reduces a sample to a number. It must not modify xs.
type Statistic func(xs []float64) float64

// Mean is the arithmetic mean.
func Mean(xs []float64) float64 { return stat.Mean(xs, nil) }

// Median is the 0.5 quantile with linear interpolation.
func Median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return quantile(s, 0.5)
}

// StatisticByName maps "mean" and "median" to their functions.
func StatisticByName(name string) (Statistic, error) {
	switch name {
	case "", "mean":
		return Mean, nil
	case "median":
		return Median, nil
	default:
		return nil, fmt.Errorf("%w: unknown statistic %q", ErrInvalidInput, name)
	}
}

// Runner executes resampling procedures with fixed options.
type Runner struct {
	opts   Options
	logger *zap.Logger
}

// NewRunner returns a runner. A nil logger discards log output.
func NewRunner(opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{opts: opts, logger: logger}
}

// Options returns the runner's options.
func (r *Runner) Options() Options { return r.opts }

func (r *Runner) check() error {
	if r.opts.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidInput, r.opts.Iterations)
	}
	return nil
}

// run evaluates fn for iterations 0..n-1 and returns the values in iteration
// order. With more than one worker the range is split into contiguous blocks.
func (r *Runner) run(op string, n int, fn func(i int, src *random.Source) (float64, error)) ([]float64, error) {
	start := time.Now()
	out := make([]float64, n)
	workers := r.opts.Workers
	if workers > n {
		workers = n
	}
	r.logger.Info("resampling started",
		zap.String("op", op),
		zap.Int("iterations", n),
		zap.Int("workers", max(workers, 1)),
		zap.Uint64("seed", r.opts.Seed))

	if workers <= 1 {
		for i := range out {
			v, err := fn(i, random.Stream(r.opts.Seed, i))
			if err != nil {
				return nil, fmt.Errorf("%s iteration %d: %w", op, i, err)
			}
			out[i] = v
		}
	} else {
		var g errgroup.Group
		chunk := (n + workers - 1) / workers
		for lo := 0; lo < n; lo += chunk {
			hi := min(lo+chunk, n)
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					v, err := fn(i, random.Stream(r.opts.Seed, i))
					if err != nil {
						return fmt.Errorf("%s iteration %d: %w", op, i, err)
					}
					out[i] = v
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	r.logger.Info("resampling finished",
		zap.String("op", op),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// quantile reads q from sorted data with linear interpolation between order
// statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func checkLevel(level float64) error {
	if !(level > 0 && level < 1) {
		return fmt.Errorf("%w: confidence level %g outside (0,1)", ErrInvalidInput, level)
	}
	return nil
}

// mcStdErr is the Monte Carlo standard error of a proportion p from n draws.
func mcStdErr(p float64, n int) float64 {
	return math.Sqrt(p * (1 - p) / float64(n))
}

package resample

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/statloom/internal/random"
	"gonum.org/v1/gonum/stat"
)

// BootstrapResult is a percentile bootstrap confidence interval.
type BootstrapResult struct {
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	StdErr   float64 `json:"std_err"`
	Level    float64 `json:"level"`
	N        int     `json:"n"`
	Size     int     `json:"size"`
}

// Contains reports whether v lies inside the interval.
func (b *BootstrapResult) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// Bootstrap resamples xs with replacement N times and reports the
// (1-level)/2 and (1+level)/2 quantiles of the replicated statistic.
func (r *Runner) Bootstrap(xs []float64, st Statistic, level float64) (*BootstrapResult, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: empty sample", ErrInvalidInput)
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: value %d is %g", ErrInvalidInput, i, x)
		}
	}
	if st == nil {
		st = Mean
	}

	reps, err := r.run("bootstrap", r.opts.Iterations, func(_ int, src *random.Source) (float64, error) {
		return st(src.Choice(xs, len(xs))), nil
	})
	if err != nil {
		return nil, err
	}
	return summarizeReplicates(st(xs), reps, level, len(xs)), nil
}

func summarizeReplicates(estimate float64, reps []float64, level float64, size int) *BootstrapResult {
	var se float64
	if len(reps) > 1 {
		se = stat.StdDev(reps, nil)
	}
	sort.Float64s(reps)
	alpha := 1 - level
	return &BootstrapResult{
		Estimate: estimate,
		Lower:    quantile(reps, alpha/2),
		Upper:    quantile(reps, 1-alpha/2),
		StdErr:   se,
		Level:    level,
		N:        len(reps),
		Size:     size,
	}
}

package resample

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/statloom/internal/inference"
	"github.com/KaramelBytes/statloom/internal/random"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CoverageResult summarizes how often bootstrap intervals cover the true
// mean of the sampling distribution. TCoverage is the coverage of the
// normal-theory t interval on the same samples.
type CoverageResult struct {
	Distribution string  `json:"distribution"`
	TrueMean     float64 `json:"true_mean"`
	SampleSize   int     `json:"sample_size"`
	Trials       int     `json:"trials"`
	Resamples    int     `json:"resamples"`
	Level        float64 `json:"level"`
	Coverage     float64 `json:"coverage"`
	MCStdErr     float64 `json:"mc_std_err"`
	MeanWidth    float64 `json:"mean_width"`
	TCoverage    float64 `json:"t_coverage"`
}

// Coverage draws trials fresh samples of sampleSize from dist, builds a
// percentile bootstrap interval for the mean of each (with the runner's
// iteration count as the number of resamples) and reports the fraction that
// contain dist.Mean().
func (r *Runner) Coverage(dist random.Distribution, sampleSize, trials int, level float64) (*CoverageResult, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if dist == nil || sampleSize < 2 || trials <= 0 {
		return nil, fmt.Errorf("%w: need a distribution, sample size >= 2 and trials > 0", ErrInvalidInput)
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	truth := dist.Mean()
	widths := make([]float64, trials)
	tHits := make([]float64, trials)

	hits, err := r.run("coverage", trials, func(i int, src *random.Source) (float64, error) {
		sample, err := src.Draw(dist, sampleSize)
		if err != nil {
			return 0, err
		}
		inner := NewRunner(Options{Iterations: r.opts.Iterations, Seed: src.Uint64(), Workers: 1}, nil)
		b, err := inner.Bootstrap(sample, Mean, level)
		if err != nil {
			return 0, err
		}
		widths[i] = b.Upper - b.Lower
		if iv, err := inference.TInterval(sample, level); err == nil && iv.Contains(truth) {
			tHits[i] = 1
		}
		if b.Contains(truth) {
			return 1, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	cov := floats.Sum(hits) / float64(trials)
	res := &CoverageResult{
		Distribution: dist.String(),
		TrueMean:     truth,
		SampleSize:   sampleSize,
		Trials:       trials,
		Resamples:    r.opts.Iterations,
		Level:        level,
		Coverage:     cov,
		MCStdErr:     mcStdErr(cov, trials),
		MeanWidth:    stat.Mean(widths, nil),
		TCoverage:    floats.Sum(tHits) / float64(trials),
	}
	r.logger.Debug("coverage study",
		zap.String("dist", res.Distribution),
		zap.Float64("coverage", res.Coverage),
		zap.Float64("t_coverage", res.TCoverage))
	return res, nil
}

// PValueStudy reports false-positive rates of two-sample t tests run under a
// true null, before and after multiple-testing adjustment.
type PValueStudy struct {
	Distribution string             `json:"distribution"`
	SampleSize   int                `json:"sample_size"`
	Tests        int                `json:"tests"`
	Alpha        float64            `json:"alpha"`
	RawRate      float64            `json:"raw_rate"`
	Adjusted     map[string]float64 `json:"adjusted_rates"`
	Rejections   map[string]int     `json:"rejections"`
	Degenerate   int                `json:"degenerate"`
	PValues      []float64          `json:"p_values,omitempty"`
}

// NullPValues runs tests Welch t tests, each on two independent samples of
// sampleSize from the same distribution. Pairs whose groups are both
// constant cannot be tested; they are counted as Degenerate and given p = 1.
func (r *Runner) NullPValues(dist random.Distribution, sampleSize, tests int, alpha float64) (*PValueStudy, error) {
	if dist == nil || sampleSize < 2 || tests <= 0 {
		return nil, fmt.Errorf("%w: need a distribution, sample size >= 2 and tests > 0", ErrInvalidInput)
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("%w: alpha %g outside (0,1)", ErrInvalidInput, alpha)
	}
	degenerate := make([]bool, tests)
	ps, err := r.run("null-pvalues", tests, func(i int, src *random.Source) (float64, error) {
		a, err := src.Draw(dist, sampleSize)
		if err != nil {
			return 0, err
		}
		b, err := src.Draw(dist, sampleSize)
		if err != nil {
			return 0, err
		}
		res, err := inference.WelchT(a, b)
		if errors.Is(err, inference.ErrInvalidInput) {
			degenerate[i] = true
			return 1, nil
		}
		if err != nil {
			return 0, err
		}
		return res.PValue, nil
	})
	if err != nil {
		return nil, err
	}

	study := &PValueStudy{
		Distribution: dist.String(),
		SampleSize:   sampleSize,
		Tests:        tests,
		Alpha:        alpha,
		PValues:      ps,
		Adjusted:     map[string]float64{},
		Rejections:   map[string]int{},
	}
	for _, d := range degenerate {
		if d {
			study.Degenerate++
		}
	}
	raw := countTrue(inference.Reject(ps, alpha))
	study.Rejections["raw"] = raw
	study.RawRate = float64(raw) / float64(tests)
	for _, m := range []inference.Method{inference.Bonferroni, inference.Holm, inference.BH} {
		adj, err := inference.Adjust(m, ps)
		if err != nil {
			return nil, err
		}
		k := countTrue(inference.Reject(adj, alpha))
		study.Rejections[string(m)] = k
		study.Adjusted[string(m)] = float64(k) / float64(tests)
	}
	return study, nil
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

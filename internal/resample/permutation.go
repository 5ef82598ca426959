package resample

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/statloom/internal/random"
)

// Alternative is the direction of a permutation test.
type Alternative string

const (
	Greater  Alternative = "greater"
	Less     Alternative = "less"
	TwoSided Alternative = "two-sided"
)

// ParseAlternative accepts greater (the default), less and two-sided.
func ParseAlternative(s string) (Alternative, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "greater":
		return Greater, nil
	case "less":
		return Less, nil
	case "two-sided", "two_sided", "twosided":
		return TwoSided, nil
	default:
		return "", fmt.Errorf("%w: unknown alternative %q", ErrInvalidInput, s)
	}
}

// PermutationResult is the outcome of a permutation test on a difference in
// means.
type PermutationResult struct {
	Observed    float64     `json:"observed"`
	PValue      float64     `json:"p_value"`
	Count       int         `json:"count"`
	N           int         `json:"n"`
	MCStdErr    float64     `json:"mc_std_err"`
	Alternative Alternative `json:"alternative"`
	Treated     int         `json:"treated"`
	Untreated   int         `json:"untreated"`
	Null        []float64   `json:"-"`
}

// PermutationTest compares mean(treated) - mean(untreated) against the
// differences obtained by shuffling the pooled values and splitting them at
// len(treated). The p-value is the fraction of shuffles at least as extreme
// as the observed difference, with no +1 correction.
func (r *Runner) PermutationTest(treated, untreated []float64, alt Alternative) (*PermutationResult, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if len(treated) == 0 || len(untreated) == 0 {
		return nil, fmt.Errorf("%w: both groups need at least one value", ErrInvalidInput)
	}
	if alt == "" {
		alt = Greater
	}
	if _, err := ParseAlternative(string(alt)); err != nil {
		return nil, err
	}
	nt := len(treated)
	pooled := make([]float64, 0, nt+len(untreated))
	pooled = append(pooled, treated...)
	pooled = append(pooled, untreated...)
	observed := diffMeans(pooled, nt)

	null, err := r.run("permutation", r.opts.Iterations, func(_ int, src *random.Source) (float64, error) {
		buf := append([]float64(nil), pooled...)
		src.Shuffle(buf)
		return diffMeans(buf, nt), nil
	})
	if err != nil {
		return nil, err
	}

	// Shuffles that reproduce the observed split can differ from it by
	// rounding in the sums; treat those as ties.
	tol := 1e-12 * (1 + math.Abs(observed))
	count := 0
	for _, d := range null {
		switch alt {
		case Greater:
			if d >= observed-tol {
				count++
			}
		case Less:
			if d <= observed+tol {
				count++
			}
		case TwoSided:
			if math.Abs(d) >= math.Abs(observed)-tol {
				count++
			}
		}
	}
	n := len(null)
	p := float64(count) / float64(n)
	return &PermutationResult{
		Observed:    observed,
		PValue:      p,
		Count:       count,
		N:           n,
		MCStdErr:    mcStdErr(p, n),
		Alternative: alt,
		Treated:     nt,
		Untreated:   len(untreated),
		Null:        null,
	}, nil
}

func diffMeans(xs []float64, split int) float64 {
	return Mean(xs[:split]) - Mean(xs[split:])
}

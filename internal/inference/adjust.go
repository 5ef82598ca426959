package inference

import (
	"fmt"
	"math"
	"sort"
)

// Method names a multiple-testing correction.
type Method string

const (
	Bonferroni Method = "bonferroni"
	Holm       Method = "holm"
	BH         Method = "bh"
)

// Adjust applies the named correction. Adjusted values are returned in input
// order and never exceed 1.
func Adjust(m Method, ps []float64) ([]float64, error) {
	switch m {
	case Bonferroni:
		return AdjustBonferroni(ps)
	case Holm:
		return AdjustHolm(ps)
	case BH:
		return AdjustBH(ps)
	default:
		return nil, fmt.Errorf("%w: unknown correction %q", ErrInvalidInput, m)
	}
}

// AdjustBonferroni multiplies each p-value by the number of tests.
func AdjustBonferroni(ps []float64) ([]float64, error) {
	if err := checkPValues(ps); err != nil {
		return nil, err
	}
	m := float64(len(ps))
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = math.Min(1, p*m)
	}
	return out, nil
}

// AdjustHolm is the Holm-Bonferroni step-down correction.
func AdjustHolm(ps []float64) ([]float64, error) {
	if err := checkPValues(ps); err != nil {
		return nil, err
	}
	order := ascending(ps)
	m := len(ps)
	out := make([]float64, m)
	running := 0.0
	for rank, idx := range order {
		v := math.Min(1, float64(m-rank)*ps[idx])
		running = math.Max(running, v)
		out[idx] = running
	}
	return out, nil
}

// AdjustBH is the Benjamini-Hochberg step-up correction controlling the false
// discovery rate.
func AdjustBH(ps []float64) ([]float64, error) {
	if err := checkPValues(ps); err != nil {
		return nil, err
	}
	order := ascending(ps)
	m := len(ps)
	out := make([]float64, m)
	running := 1.0
	for rank := m - 1; rank >= 0; rank-- {
		idx := order[rank]
		v := math.Min(1, float64(m)/float64(rank+1)*ps[idx])
		running = math.Min(running, v)
		out[idx] = running
	}
	return out, nil
}

// Reject marks the p-values at or below alpha.
func Reject(ps []float64, alpha float64) []bool {
	out := make([]bool, len(ps))
	for i, p := range ps {
		out[i] = p <= alpha
	}
	return out
}

func ascending(ps []float64) []int {
	order := make([]int, len(ps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ps[order[a]] < ps[order[b]] })
	return order
}

func checkPValues(ps []float64) error {
	for i, p := range ps {
		if !(p >= 0 && p <= 1) {
			return fmt.Errorf("%w: p-value %d = %g outside [0,1]", ErrInvalidInput, i, p)
		}
	}
	return nil
}

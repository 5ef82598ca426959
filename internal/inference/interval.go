package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a two-sided confidence interval.
type Interval struct {
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Level    float64 `json:"level"`
}

// Contains reports whether v lies inside the closed interval.
func (iv Interval) Contains(v float64) bool { return v >= iv.Lower && v <= iv.Upper }

// TInterval is the normal-theory interval for a mean: mean ± t·s/sqrt(n).
func TInterval(xs []float64, level float64) (Interval, error) {
	if len(xs) < 2 {
		return Interval{}, fmt.Errorf("%w: need at least 2 values, got %d", ErrInvalidInput, len(xs))
	}
	if !(level > 0 && level < 1) {
		return Interval{}, fmt.Errorf("%w: confidence level %g outside (0,1)", ErrInvalidInput, level)
	}
	mean, sd := stat.MeanStdDev(xs, nil)
	n := float64(len(xs))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}.Quantile(0.5 + level/2)
	half := t * sd / math.Sqrt(n)
	return Interval{Estimate: mean, Lower: mean - half, Upper: mean + half, Level: level}, nil
}

// TTestResult is a two-sided Welch two-sample t test.
type TTestResult struct {
	T      float64 `json:"t"`
	DF     float64 `json:"df"`
	PValue float64 `json:"p_value"`
}

// WelchT tests equality of two means without assuming equal variances.
func WelchT(a, b []float64) (*TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return nil, fmt.Errorf("%w: each group needs at least 2 values", ErrInvalidInput)
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	sa, sb := va/na, vb/nb
	se := math.Sqrt(sa + sb)
	if se == 0 {
		return nil, fmt.Errorf("%w: both groups are constant", ErrInvalidInput)
	}
	t := (ma - mb) / se
	df := (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return &TTestResult{T: t, DF: df, PValue: math.Min(1, p)}, nil
}

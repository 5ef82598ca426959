package inference

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/statloom/internal/mle"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInvalidDF reports a non-positive degrees-of-freedom difference.
	ErrInvalidDF = errors.New("degrees of freedom must be positive")
	// ErrNotNested reports models whose parameter sets are not nested.
	ErrNotNested = errors.New("models are not nested")
	// ErrInvalidInput reports values a test cannot be computed from.
	ErrInvalidInput = errors.New("invalid input")
)

// LRTResult is the outcome of a likelihood-ratio test. Converged is false
// when either fit reported a failed search; Extra lists the added terms.
type LRTResult struct {
	Statistic  float64  `json:"statistic"`
	DF         int      `json:"df"`
	PValue     float64  `json:"p_value"`
	LogLikNull float64  `json:"log_lik_null"`
	LogLikAlt  float64  `json:"log_lik_alt"`
	Converged  bool     `json:"converged"`
	Extra      []string `json:"extra,omitempty"`
}

// ChiSquareSF is the chi-square survival function 1 - CDF(x) with df degrees
// of freedom.
func ChiSquareSF(x, df float64) float64 {
	if x <= 0 {
		return 1
	}
	return distuv.ChiSquared{K: df}.Survival(x)
}

// LikelihoodRatio compares a null model against a larger alternative from
// their log-likelihoods and parameter counts:
//
//	df = kAlt - kNull
//	LR = -2 (llNull - llAlt)
//	p  = ChiSquareSF(LR, df)
//
// The models must be nested; that cannot be checked from numbers alone, see
// CompareNested.
func LikelihoodRatio(llNull, llAlt float64, kNull, kAlt int) (*LRTResult, error) {
	df := kAlt - kNull
	if df <= 0 {
		return nil, fmt.Errorf("%w: %d alternative vs %d null parameters", ErrInvalidDF, kAlt, kNull)
	}
	if math.IsNaN(llNull) || math.IsInf(llNull, 0) || math.IsNaN(llAlt) || math.IsInf(llAlt, 0) {
		return nil, fmt.Errorf("%w: log-likelihoods %g and %g", ErrInvalidInput, llNull, llAlt)
	}
	// Written as 2(llAlt - llNull) so equal fits give +0.
	lr := 2 * (llAlt - llNull)
	return &LRTResult{
		Statistic:  lr,
		DF:         df,
		PValue:     ChiSquareSF(lr, float64(df)),
		LogLikNull: llNull,
		LogLikAlt:  llAlt,
		Converged:  true,
	}, nil
}

// CompareNested runs a likelihood-ratio test on two fits after checking that
// the null's parameters are a strict subset of the alternative's and that
// both were fitted to the same number of observations.
func CompareNested(null, alt *mle.Fit) (*LRTResult, error) {
	if null == nil || alt == nil {
		return nil, fmt.Errorf("%w: missing fit", ErrInvalidInput)
	}
	if null.Model != alt.Model {
		return nil, fmt.Errorf("%w: %s vs %s", ErrNotNested, null.Model, alt.Model)
	}
	if null.NumObs != alt.NumObs {
		return nil, fmt.Errorf("%w: fitted to %d and %d observations", ErrNotNested, null.NumObs, alt.NumObs)
	}
	altNames := make(map[string]bool, len(alt.ParamNames))
	for _, n := range alt.ParamNames {
		altNames[n] = true
	}
	nullNames := make(map[string]bool, len(null.ParamNames))
	for _, n := range null.ParamNames {
		if !altNames[n] {
			return nil, fmt.Errorf("%w: %q is not in the alternative model", ErrNotNested, n)
		}
		nullNames[n] = true
	}
	var extra []string
	for _, n := range alt.ParamNames {
		if !nullNames[n] {
			extra = append(extra, n)
		}
	}
	if len(extra) == 0 {
		return nil, fmt.Errorf("%w: alternative adds no parameters", ErrNotNested)
	}
	res, err := LikelihoodRatio(null.LogLik, alt.LogLik, null.NumParams, alt.NumParams)
	if err != nil {
		return nil, err
	}
	res.Converged = null.Success && alt.Success
	res.Extra = extra
	return res, nil
}

// Markdown renders the test result.
func (r *LRTResult) Markdown() string {
	var b strings.Builder
	b.WriteString("[LIKELIHOOD-RATIO TEST]\n")
	if len(r.Extra) > 0 {
		b.WriteString(fmt.Sprintf("Added terms: %s\n", strings.Join(r.Extra, ", ")))
	}
	b.WriteString(fmt.Sprintf("Log-likelihood (null): %.6g\n", r.LogLikNull))
	b.WriteString(fmt.Sprintf("Log-likelihood (alt): %.6g\n", r.LogLikAlt))
	b.WriteString(fmt.Sprintf("LR = %.6g on %d df, p = %.4g\n", r.Statistic, r.DF, r.PValue))
	if !r.Converged {
		b.WriteString("\n[NOTES]\n- at least one fit did not converge; the statistic may be unreliable\n")
	}
	return b.String()
}

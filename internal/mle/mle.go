// Package mle fits likelihood models by minimizing their negative
// log-likelihood with a pluggable minimizer.
package mle

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/statloom/internal/likelihood"
	"github.com/KaramelBytes/statloom/internal/optim"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Estimator wires a model's objective into a minimizer.
type Estimator struct {
	minimizer optim.Minimizer
	logger    *zap.Logger
}

// NewEstimator returns an estimator. A nil minimizer means Nelder-Mead with
// default limits; a nil logger discards log output.
func NewEstimator(m optim.Minimizer, logger *zap.Logger) *Estimator {
	if m == nil {
		m = &optim.NelderMead{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{minimizer: m, logger: logger}
}

// Fit is a fitted model. Success mirrors the minimizer's verdict.
type Fit struct {
	Model       string    `json:"model"`
	Method      string    `json:"method"`
	ParamNames  []string  `json:"param_names"`
	Params      []float64 `json:"params"`
	StdErrors   []float64 `json:"std_errors,omitempty"`
	NegLogLik   float64   `json:"neg_log_lik"`
	LogLik      float64   `json:"log_lik"`
	NumParams   int       `json:"num_params"`
	NumObs      int       `json:"num_obs"`
	Success     bool      `json:"success"`
	Status      string    `json:"status"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
}

// Fit minimizes the model's negative log-likelihood from x0, or from the
// model's own initial guess when x0 is nil. A failed search is returned as a
// Fit with Success == false; it is not retried.
func (e *Estimator) Fit(m likelihood.Model, x0 []float64) (*Fit, error) {
	if x0 == nil {
		x0 = m.InitialGuess()
	}
	if err := likelihood.Validate(m, x0); err != nil {
		return nil, fmt.Errorf("initial guess: %w", err)
	}
	res, err := e.minimizer.Minimize(likelihood.Objective(m), x0)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", m.Name(), err)
	}
	f := &Fit{
		Model:       m.Name(),
		Method:      e.minimizer.Name(),
		ParamNames:  m.ParamNames(),
		Params:      res.X,
		NegLogLik:   res.F,
		LogLik:      -res.F,
		NumParams:   m.NumParams(),
		NumObs:      m.NumObs(),
		Success:     res.Success,
		Status:      res.Status,
		Iterations:  res.Iterations,
		Evaluations: res.Evaluations,
	}
	e.logger.Debug("fit finished",
		zap.String("model", f.Model),
		zap.String("method", f.Method),
		zap.Float64s("params", f.Params),
		zap.Float64("nll", f.NegLogLik),
		zap.String("status", f.Status),
		zap.Int("iterations", f.Iterations))
	if !f.Success {
		e.logger.Warn("optimizer did not converge",
			zap.String("model", f.Model),
			zap.String("status", f.Status))
	}
	return f, nil
}

// FitWithErrors is Fit followed by StdErrors at the optimum.
func (e *Estimator) FitWithErrors(m likelihood.Model, x0 []float64) (*Fit, error) {
	f, err := e.Fit(m, x0)
	if err != nil {
		return nil, err
	}
	f.StdErrors = StdErrors(m, f.Params)
	return f, nil
}

// StdErrors returns asymptotic standard errors from the inverse of the
// observed information (the numeric Hessian of the NLL at params). Entries are
// NaN when the Hessian cannot be inverted.
func StdErrors(m likelihood.Model, params []float64) []float64 {
	n := len(params)
	out := make([]float64, n)
	h := mat.NewSymDense(n, nil)
	fd.Hessian(h, m.NegLogLik, params, &fd.Settings{Formula: fd.Central})

	var chol mat.Cholesky
	if !chol.Factorize(h) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i := range out {
		out[i] = math.Sqrt(cov.At(i, i))
	}
	return out
}

// AIC is 2k + 2*NLL.
func (f *Fit) AIC() float64 { return 2*float64(f.NumParams) + 2*f.NegLogLik }

// BIC is k*log(n) + 2*NLL.
func (f *Fit) BIC() float64 {
	return float64(f.NumParams)*math.Log(float64(f.NumObs)) + 2*f.NegLogLik
}

// Markdown renders the fit in the same sectioned layout as dataset reports.
func (f *Fit) Markdown() string {
	var b strings.Builder
	b.WriteString("[MODEL FIT]\n")
	b.WriteString(fmt.Sprintf("Model: %s (%s)\n", f.Model, f.Method))
	b.WriteString(fmt.Sprintf("Observations: %d\n", f.NumObs))
	status := "converged"
	if !f.Success {
		status = "NOT converged"
	}
	b.WriteString(fmt.Sprintf("Optimizer: %s after %d iterations (%s)\n", status, f.Iterations, f.Status))
	b.WriteString(fmt.Sprintf("Log-likelihood: %.6g\n", f.LogLik))
	b.WriteString(fmt.Sprintf("AIC: %.6g  BIC: %.6g\n\n", f.AIC(), f.BIC()))

	b.WriteString("[PARAMETERS]\n")
	if len(f.StdErrors) == len(f.Params) {
		b.WriteString("| param | estimate | std err |\n| --- | --- | --- |\n")
		for i, p := range f.Params {
			b.WriteString(fmt.Sprintf("| %s | %.6g | %.4g |\n", f.ParamNames[i], p, f.StdErrors[i]))
		}
	} else {
		b.WriteString("| param | estimate |\n| --- | --- |\n")
		for i, p := range f.Params {
			b.WriteString(fmt.Sprintf("| %s | %.6g |\n", f.ParamNames[i], p))
		}
	}
	return b.String()
}

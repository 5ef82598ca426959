package cmd

import (
	"fmt"

	"github.com/KaramelBytes/statloom/internal/dataset"
	"github.com/KaramelBytes/statloom/internal/likelihood"
	"github.com/KaramelBytes/statloom/internal/mle"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	fitData       dataFlags
	fitColumn     string
	fitSuccess    string
	fitFailure    string
	fitCovariates string
	fitIntercept  bool
	fitStart      string
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Maximum-likelihood fits of normal, Poisson and binomial-logit models",
}

var fitNormalCmd = &cobra.Command{
	Use:   "normal <file>",
	Short: "Fit mu and sigma of a normal model to one column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := fitData.load(args[0])
		if err != nil {
			return err
		}
		xs, err := t.Values(fitColumn)
		if err != nil {
			return err
		}
		m, err := likelihood.NewNormal(xs)
		if err != nil {
			return err
		}
		return runFit(cmd, m)
	},
}

var fitPoissonCmd = &cobra.Command{
	Use:   "poisson <file>",
	Short: "Fit the rate of a Poisson model to a count column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := fitData.load(args[0])
		if err != nil {
			return err
		}
		ks, err := t.Counts(fitColumn)
		if err != nil {
			return err
		}
		m, err := likelihood.NewPoisson(ks)
		if err != nil {
			return err
		}
		return runFit(cmd, m)
	},
}

var fitGLMCmd = &cobra.Command{
	Use:   "glm <file>",
	Short: "Fit a binomial GLM with logit link to success/failure counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := fitData.load(args[0])
		if err != nil {
			return err
		}
		m, err := binomialModel(t, fitSuccess, fitFailure, utils.SplitList(fitCovariates), fitIntercept)
		if err != nil {
			return err
		}
		return runFit(cmd, m)
	},
}

func runFit(cmd *cobra.Command, m likelihood.Model) error {
	x0, err := parseStart(fitStart, m.NumParams())
	if err != nil {
		return err
	}
	f, err := fitModel(cmd, m, x0)
	if err != nil {
		return err
	}
	return emit(cmd, f, f.Markdown())
}

// fitModel fits m with the configured optimizer and warns on stderr when the
// search did not converge.
func fitModel(cmd *cobra.Command, m likelihood.Model, x0 []float64) (*mle.Fit, error) {
	opt, err := newMinimizer()
	if err != nil {
		return nil, err
	}
	f, err := mle.NewEstimator(opt, logger).FitWithErrors(m, x0)
	if err != nil {
		return nil, err
	}
	if !f.Success {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s fit did not converge (%s)\n", f.Model, f.Status)
	}
	return f, nil
}

// binomialModel builds a binomial-logit model from two count columns and a
// list of covariate columns.
func binomialModel(t *dataset.Table, success, failure string, covariates []string, intercept bool) (*likelihood.BinomialLogit, error) {
	if success == "" || failure == "" {
		return nil, fmt.Errorf("--success and --failure are required")
	}
	x, names, err := t.Design(covariates, intercept)
	if err != nil {
		return nil, err
	}
	ks, err := t.Counts(success)
	if err != nil {
		return nil, err
	}
	fs, err := t.Counts(failure)
	if err != nil {
		return nil, err
	}
	return likelihood.NewBinomialLogit(x, ks, fs, names)
}

// parseStart reads a comma-separated initial guess; empty means the model's own.
func parseStart(s string, k int) ([]float64, error) {
	fields := utils.SplitList(s)
	if len(fields) == 0 {
		return nil, nil
	}
	xs, err := parseFloats(fields)
	if err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	if len(xs) != k {
		return nil, fmt.Errorf("--start has %d values, model has %d parameters", len(xs), k)
	}
	return xs, nil
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.AddCommand(fitNormalCmd, fitPoissonCmd, fitGLMCmd)

	fitData.register(fitCmd.PersistentFlags())
	fitCmd.PersistentFlags().StringVar(&fitStart, "start", "", "comma-separated initial parameter values")
	for _, c := range []*cobra.Command{fitNormalCmd, fitPoissonCmd} {
		c.Flags().StringVarP(&fitColumn, "column", "c", "", "column holding the observations")
		_ = c.MarkFlagRequired("column")
	}
	fitGLMCmd.Flags().StringVar(&fitSuccess, "success", "", "column of success counts")
	fitGLMCmd.Flags().StringVar(&fitFailure, "failure", "", "column of failure counts")
	fitGLMCmd.Flags().StringVar(&fitCovariates, "covariates", "", "comma-separated covariate columns")
	fitGLMCmd.Flags().BoolVar(&fitIntercept, "intercept", true, "add an intercept column")
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/statloom/internal/inference"
	"github.com/KaramelBytes/statloom/internal/random"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	covDist       string
	covSampleSize int
	covTrials     int
	covLevel      float64
	covResamples  int

	pvDist       string
	pvSampleSize int
	pvTests      int
	pvAlpha      float64
	pvValues     string
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Simulate how often bootstrap intervals cover the true mean",
	Long: `Draws --trials fresh samples of size --n from --dist, builds a percentile
bootstrap interval for each and reports the share that contain the true
mean, next to the share of Student t intervals that do.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dist, err := random.ParseDistribution(covDist)
		if err != nil {
			return err
		}
		res, err := newRunner(covResamples).Coverage(dist, covSampleSize, covTrials, levelFlag(cmd, covLevel))
		if err != nil {
			return err
		}
		return emit(cmd, res, res.Markdown())
	},
}

var pvaluesCmd = &cobra.Command{
	Use:   "pvalues",
	Short: "Null p-value study, or multiple-testing adjustment of given p-values",
	Long: `Without --values, runs --tests two-sample t tests on data drawn from the
same distribution and reports false-positive rates before and after
Bonferroni, Holm and Benjamini-Hochberg adjustment.

With --values, adjusts the supplied p-values instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		alpha := cfg.Alpha
		if cmd.Flags().Changed("alpha") {
			alpha = pvAlpha
		}
		if pvValues != "" {
			ps, err := parseFloats(utils.SplitList(pvValues))
			if err != nil {
				return fmt.Errorf("--values: %w", err)
			}
			rep, err := adjustPValues(ps, alpha)
			if err != nil {
				return err
			}
			return emit(cmd, rep, rep.Markdown())
		}
		dist, err := random.ParseDistribution(pvDist)
		if err != nil {
			return err
		}
		res, err := newRunner(0).NullPValues(dist, pvSampleSize, pvTests, alpha)
		if err != nil {
			return err
		}
		return emit(cmd, res, res.Markdown())
	},
}

// adjustReport holds supplied p-values with every correction applied.
type adjustReport struct {
	Alpha    float64              `json:"alpha"`
	PValues  []float64            `json:"p_values"`
	Adjusted map[string][]float64 `json:"adjusted"`
	Rejected map[string][]bool    `json:"rejected"`
}

var adjustMethods = []inference.Method{inference.Bonferroni, inference.Holm, inference.BH}

func adjustPValues(ps []float64, alpha float64) (*adjustReport, error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("alpha must be in (0,1), got %g", alpha)
	}
	rep := &adjustReport{
		Alpha:    alpha,
		PValues:  ps,
		Adjusted: map[string][]float64{},
		Rejected: map[string][]bool{"none": inference.Reject(ps, alpha)},
	}
	for _, m := range adjustMethods {
		adj, err := inference.Adjust(m, ps)
		if err != nil {
			return nil, err
		}
		rep.Adjusted[string(m)] = adj
		rep.Rejected[string(m)] = inference.Reject(adj, alpha)
	}
	return rep, nil
}

func (r *adjustReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[ADJUSTED P-VALUES]\n")
	b.WriteString(fmt.Sprintf("Tests: %d, alpha: %g (* = rejected)\n\n", len(r.PValues), r.Alpha))
	b.WriteString("| # | raw | bonferroni | holm | bh |\n| --- | --- | --- | --- | --- |\n")
	for i, p := range r.PValues {
		b.WriteString(fmt.Sprintf("| %d | %s", i+1, mark(p, r.Rejected["none"][i])))
		for _, m := range adjustMethods {
			b.WriteString(" | " + mark(r.Adjusted[string(m)][i], r.Rejected[string(m)][i]))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func mark(p float64, rejected bool) string {
	s := fmt.Sprintf("%.4g", p)
	if rejected {
		s += "*"
	}
	return s
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(coverageCmd, pvaluesCmd)

	coverageCmd.Flags().StringVar(&covDist, "dist", "normal:0,1", "population: normal:mu,sigma | poisson:lambda | exponential:rate")
	coverageCmd.Flags().IntVar(&covSampleSize, "n", 50, "sample size per trial")
	coverageCmd.Flags().IntVar(&covTrials, "trials", 200, "number of simulated samples")
	coverageCmd.Flags().Float64Var(&covLevel, "level", 0.95, "confidence level (default from config)")
	coverageCmd.Flags().IntVar(&covResamples, "resamples", 0, "bootstrap resamples per trial (default from config)")

	pvaluesCmd.Flags().StringVar(&pvDist, "dist", "normal:0,1", "population: normal:mu,sigma | poisson:lambda | exponential:rate")
	pvaluesCmd.Flags().IntVar(&pvSampleSize, "n", 30, "sample size per group")
	pvaluesCmd.Flags().IntVar(&pvTests, "tests", 100, "number of null tests")
	pvaluesCmd.Flags().Float64Var(&pvAlpha, "alpha", 0.05, "significance level (default from config)")
	pvaluesCmd.Flags().StringVar(&pvValues, "values", "", "comma-separated p-values to adjust instead of simulating")
}

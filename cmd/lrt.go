package cmd

import (
	"fmt"

	"github.com/KaramelBytes/statloom/internal/inference"
	"github.com/KaramelBytes/statloom/internal/mle"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	lrtData      dataFlags
	lrtSuccess   string
	lrtFailure   string
	lrtNull      string
	lrtAlt       string
	lrtIntercept bool
	lrtLLNull    float64
	lrtLLAlt     float64
	lrtKNull     int
	lrtKAlt      int
)

// lrtReport bundles both fits with the test.
type lrtReport struct {
	Null *mle.Fit             `json:"null,omitempty"`
	Alt  *mle.Fit             `json:"alt,omitempty"`
	Test *inference.LRTResult `json:"test"`
}

func (r *lrtReport) Markdown() string {
	s := ""
	if r.Null != nil && r.Alt != nil {
		s = "Null model\n" + r.Null.Markdown() + "\nAlternative model\n" + r.Alt.Markdown() + "\n"
	}
	return s + r.Test.Markdown()
}

var lrtCmd = &cobra.Command{
	Use:   "lrt [file]",
	Short: "Likelihood-ratio test between nested binomial-logit models",
	Long: `Fits a null and an alternative binomial GLM with logit link to the same
success/failure counts and compares them with a likelihood-ratio test.

Without a file, the test is computed from supplied log-likelihoods and
parameter counts (--ll-null, --ll-alt, --k-null, --k-alt).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, name := range []string{"ll-null", "ll-alt", "k-null", "k-alt"} {
				if !cmd.Flags().Changed(name) {
					return fmt.Errorf("without a file, --%s is required", name)
				}
			}
			res, err := inference.LikelihoodRatio(lrtLLNull, lrtLLAlt, lrtKNull, lrtKAlt)
			if err != nil {
				return err
			}
			rep := &lrtReport{Test: res}
			return emit(cmd, rep, rep.Markdown())
		}

		t, err := lrtData.load(args[0])
		if err != nil {
			return err
		}
		nullModel, err := binomialModel(t, lrtSuccess, lrtFailure, utils.SplitList(lrtNull), lrtIntercept)
		if err != nil {
			return fmt.Errorf("null model: %w", err)
		}
		altModel, err := binomialModel(t, lrtSuccess, lrtFailure, utils.SplitList(lrtAlt), lrtIntercept)
		if err != nil {
			return fmt.Errorf("alternative model: %w", err)
		}
		nullFit, err := fitModel(cmd, nullModel, nil)
		if err != nil {
			return err
		}
		altFit, err := fitModel(cmd, altModel, nil)
		if err != nil {
			return err
		}
		res, err := inference.CompareNested(nullFit, altFit)
		if err != nil {
			return err
		}
		rep := &lrtReport{Null: nullFit, Alt: altFit, Test: res}
		return emit(cmd, rep, rep.Markdown())
	},
}

func init() {
	rootCmd.AddCommand(lrtCmd)
	lrtData.register(lrtCmd.Flags())
	lrtCmd.Flags().StringVar(&lrtSuccess, "success", "", "column of success counts")
	lrtCmd.Flags().StringVar(&lrtFailure, "failure", "", "column of failure counts")
	lrtCmd.Flags().StringVar(&lrtNull, "null", "", "comma-separated covariates of the null model")
	lrtCmd.Flags().StringVar(&lrtAlt, "alt", "", "comma-separated covariates of the alternative model")
	lrtCmd.Flags().BoolVar(&lrtIntercept, "intercept", true, "add an intercept column to both models")
	lrtCmd.Flags().Float64Var(&lrtLLNull, "ll-null", 0, "log-likelihood of the null model")
	lrtCmd.Flags().Float64Var(&lrtLLAlt, "ll-alt", 0, "log-likelihood of the alternative model")
	lrtCmd.Flags().IntVar(&lrtKNull, "k-null", 0, "parameter count of the null model")
	lrtCmd.Flags().IntVar(&lrtKAlt, "k-alt", 0, "parameter count of the alternative model")
}

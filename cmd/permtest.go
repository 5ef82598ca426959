package cmd

import (
	"github.com/KaramelBytes/statloom/internal/resample"
	"github.com/spf13/cobra"
)

var (
	permData        dataFlags
	permTreated     string
	permUntreated   string
	permAlternative string
	permIterations  int
)

var permtestCmd = &cobra.Command{
	Use:   "permtest <file>",
	Short: "Permutation test for a difference in means between two columns",
	Long: `Pools the treated and untreated columns, reshuffles them N times and
reports the share of shuffles whose difference in means is at least as
extreme as the observed one. Blank cells are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alt, err := resample.ParseAlternative(permAlternative)
		if err != nil {
			return err
		}
		t, err := permData.load(args[0])
		if err != nil {
			return err
		}
		treated, err := t.Values(permTreated)
		if err != nil {
			return err
		}
		untreated, err := t.Values(permUntreated)
		if err != nil {
			return err
		}
		res, err := newRunner(permIterations).PermutationTest(treated, untreated, alt)
		if err != nil {
			return err
		}
		return emit(cmd, res, res.Markdown())
	},
}

func init() {
	rootCmd.AddCommand(permtestCmd)
	permData.register(permtestCmd.Flags())
	permtestCmd.Flags().StringVar(&permTreated, "treated", "", "column of treated observations")
	permtestCmd.Flags().StringVar(&permUntreated, "untreated", "", "column of untreated observations")
	permtestCmd.Flags().StringVar(&permAlternative, "alternative", "greater", "greater | less | two-sided")
	permtestCmd.Flags().IntVarP(&permIterations, "iterations", "n", 0, "number of permutations (default from config)")
	_ = permtestCmd.MarkFlagRequired("treated")
	_ = permtestCmd.MarkFlagRequired("untreated")
}

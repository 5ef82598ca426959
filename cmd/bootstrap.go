package cmd

import (
	"github.com/KaramelBytes/statloom/internal/resample"
	"github.com/spf13/cobra"
)

var (
	bootData       dataFlags
	bootColumn     string
	bootStat       string
	bootLevel      float64
	bootIterations int
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <file>",
	Short: "Percentile bootstrap interval for the mean or median of a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := resample.StatisticByName(bootStat)
		if err != nil {
			return err
		}
		t, err := bootData.load(args[0])
		if err != nil {
			return err
		}
		xs, err := t.Values(bootColumn)
		if err != nil {
			return err
		}
		res, err := newRunner(bootIterations).Bootstrap(xs, st, levelFlag(cmd, bootLevel))
		if err != nil {
			return err
		}
		return emit(cmd, res, res.Markdown())
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootData.register(bootstrapCmd.Flags())
	bootstrapCmd.Flags().StringVarP(&bootColumn, "column", "c", "", "column to resample")
	bootstrapCmd.Flags().StringVar(&bootStat, "stat", "mean", "statistic: mean | median")
	bootstrapCmd.Flags().Float64Var(&bootLevel, "level", 0.95, "confidence level (default from config)")
	bootstrapCmd.Flags().IntVarP(&bootIterations, "iterations", "n", 0, "number of resamples (default from config)")
	_ = bootstrapCmd.MarkFlagRequired("column")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/statloom/internal/analysis"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descData       dataFlags
	descSampleRows int
	descGroupBy    string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descOutDir     string
	descQuiet      bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Summarize CSV/TSV/XLSX datasets column by column",
	Long: `Summarizes one or more datasets. Arguments may be glob patterns.

With a single file the summary goes to stdout (or --output). With several
files, or with --out-dir, each summary is written to <out-dir>/<name>.summary.md;
an existing file is never overwritten, a numbered suffix is used instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.SampleRows = descSampleRows
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}

		if len(files) == 1 && descOutDir == "" {
			t, err := descData.load(files[0])
			if err != nil {
				return err
			}
			rep := analysis.Summarize(t, opt)
			rep.RunID = runID
			return emit(cmd, rep, rep.Markdown())
		}

		outDir := descOutDir
		if outDir == "" {
			outDir = "."
		}
		out := cmd.OutOrStdout()
		for i, path := range files {
			if !descQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, len(files), filepath.Base(path))
			}
			t, err := descData.load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rep := analysis.Summarize(t, opt)
			rep.RunID = runID
			target, renamed := summaryPath(outDir, path)
			if renamed && !descQuiet {
				fmt.Fprintf(out, "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(target))
			}
			if err := utils.SafeWriteFile(target, []byte(rep.Markdown())); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !descQuiet {
				fmt.Fprintf(out, "✓ Wrote summary to %s\n", target)
			}
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// summaryPath picks <dir>/<base>.summary.md, or the first free
// <base>__N.summary.md when that exists. It reports whether a suffix was used.
func summaryPath(dir, input string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if descData.sheetName != "" {
		base += "__sheet-" + slug(descData.sheetName)
	}
	target := filepath.Join(dir, base+".summary.md")
	if _, err := os.Stat(target); err != nil {
		return target, false
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", base, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, true
		}
	}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	if out := strings.Trim(b.String(), "-"); out != "" {
		return out
	}
	return "sheet"
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descData.register(describeCmd.Flags())
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	describeCmd.Flags().StringVar(&descGroupBy, "group-by", "", "label column to compute per-group means for")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().StringVar(&descOutDir, "out-dir", "", "directory for per-file summaries")
	describeCmd.Flags().BoolVar(&descQuiet, "quiet", false, "suppress progress and non-essential output")
}

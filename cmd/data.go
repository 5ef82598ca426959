package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/statloom/internal/dataset"
	"github.com/KaramelBytes/statloom/internal/optim"
	"github.com/KaramelBytes/statloom/internal/resample"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// dataFlags are the parsing options shared by every command that reads a file.
type dataFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
	maxRows    int
}

func (d *dataFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&d.delimiter, "delimiter", "", "field delimiter: ',', ';' or 'tab' (default: sniffed from the header line)")
	fs.StringVar(&d.decimal, "decimal", "", "decimal separator: '.' or 'comma'")
	fs.StringVar(&d.thousands, "thousands", "", "thousands separator: ',', '.' or 'space'")
	fs.StringVar(&d.sheetName, "sheet-name", "", "XLSX sheet name")
	fs.IntVar(&d.sheetIndex, "sheet-index", 0, "XLSX 1-based sheet index (used when no name is given)")
	fs.IntVar(&d.maxRows, "max-rows", 0, "read at most this many data rows (0 = all)")
}

func (d *dataFlags) reset() { *d = dataFlags{} }

func (d *dataFlags) options() (dataset.Options, error) {
	opt := dataset.Options{Sheet: d.sheetName, SheetIndex: d.sheetIndex, MaxRows: d.maxRows}
	switch d.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", d.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(d.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", d.decimal)
	}
	switch strings.ToLower(d.thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", d.thousands)
	}
	return opt, nil
}

func (d *dataFlags) load(path string) (*dataset.Table, error) {
	opt, err := d.options()
	if err != nil {
		return nil, err
	}
	t, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded",
		zap.String("file", t.Name),
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", len(t.Columns)))
	return t, nil
}

// newRunner builds a resampling runner from the effective configuration.
// A positive iterations value overrides the configured resample count.
func newRunner(iterations int) *resample.Runner {
	opts := resample.Options{Iterations: cfg.Resamples, Seed: cfg.Seed, Workers: cfg.Workers}
	if iterations > 0 {
		opts.Iterations = iterations
	}
	return resample.NewRunner(opts, logger)
}

// newMinimizer builds the configured optimizer.
func newMinimizer() (optim.Minimizer, error) {
	return optim.New(cfg.Optimizer, cfg.MaxIterations)
}

// levelFlag returns the flag value when set, else the configured confidence level.
func levelFlag(cmd *cobra.Command, v float64) float64 {
	if cmd.Flags().Changed("level") {
		return v
	}
	return cfg.ConfidenceLevel
}

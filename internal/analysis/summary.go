// Package analysis produces descriptive summaries of loaded datasets.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/statloom/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options controls which sections a summary includes.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group means for one label column.
	GroupBy string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset summaries.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Correlations: true, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly summary of a dataset.
type Report struct {
	Name     string          `json:"name"`
	RunID    string          `json:"run_id,omitempty"`
	Rows     int             `json:"rows"`
	Cols     []ColumnSummary `json:"columns"`
	Samples  [][]string      `json:"samples,omitempty"`
	Groups   []GroupResult   `json:"groups,omitempty"`
	Corr     *CorrMatrix     `json:"correlations,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|datetime|categorical|text|empty
	Unit    string `json:"unit,omitempty"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`

	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Std    float64 `json:"std,omitempty"`
	Median float64 `json:"median,omitempty"`

	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`

	TopValues []CategoryCount `json:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupResult holds per-group means of the numeric columns.
type GroupResult struct {
	Key   string             `json:"key"`
	Size  int                `json:"size"`
	Means map[string]float64 `json:"means"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Summarize computes column kinds, numeric statistics and the optional
// group, correlation and outlier sections.
func Summarize(t *dataset.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.NumRows()}
	n := t.NumRows()
	var numCols []int

	for j, name := range t.Columns {
		s := ColumnSummary{Name: name, Unit: t.Units[j]}
		var nums []float64
		var dtCnt, txtCnt int
		cats := map[string]int{}
		for i := 0; i < n; i++ {
			v := t.Cell(i, j)
			if v == "" {
				s.Missing++
				continue
			}
			s.NonNull++
			if x, ok := t.Number(i, j); ok && !math.IsNaN(x) && !math.IsInf(x, 0) {
				nums = append(nums, x)
				continue
			}
			if _, ok := parseTimeMaybe(v); ok {
				dtCnt++
				continue
			}
			txtCnt++
			if len(v) <= 64 {
				cats[v]++
			}
		}
		switch {
		case s.NonNull == 0:
			s.Kind = "empty"
		case len(nums) >= dtCnt && len(nums) >= txtCnt:
			s.Kind = "numeric"
			describeNumeric(&s, nums, opt)
			numCols = append(numCols, j)
			if len(nums) < s.NonNull {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s: %d non-numeric values ignored", name, s.NonNull-len(nums)))
			}
		case dtCnt >= txtCnt:
			s.Kind = "datetime"
		default:
			s.Kind = "categorical"
			if len(cats) > n/2 && len(cats) > 20 {
				s.Kind = "text"
			}
			s.Unique = len(cats)
			s.TopValues = topValues(cats, 8)
		}
		rep.Cols = append(rep.Cols, s)
	}

	sampleRows := min(opt.SampleRows, n)
	for i := 0; i < sampleRows; i++ {
		row := make([]string, len(t.Columns))
		for j := range row {
			row[j] = t.Cell(i, j)
		}
		rep.Samples = append(rep.Samples, row)
	}

	if opt.GroupBy != "" {
		if g, err := t.Index(opt.GroupBy); err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by skipped: %v", err))
		} else {
			rep.Groups = groupMeans(t, g, numCols)
		}
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(t, numCols)
	}
	return rep
}

func describeNumeric(s *ColumnSummary, nums []float64, opt Options) {
	s.Min = floats.Min(nums)
	s.Max = floats.Max(nums)
	if len(nums) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(nums, nil)
	} else {
		s.Mean = nums[0]
	}
	median, mad := medianMAD(nums)
	s.Median = median

	if !opt.Outliers || len(nums) < 8 {
		return
	}
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range nums {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		s.OutliersMaxAbsZ = math.Max(s.OutliersMaxAbsZ, az)
	}
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func groupMeans(t *dataset.Table, g int, numCols []int) []GroupResult {
	type acc struct {
		size int
		sum  map[int]float64
		cnt  map[int]int
	}
	groups := map[string]*acc{}
	for i := 0; i < t.NumRows(); i++ {
		key := t.Cell(i, g)
		if key == "" {
			continue
		}
		a := groups[key]
		if a == nil {
			a = &acc{sum: map[int]float64{}, cnt: map[int]int{}}
			groups[key] = a
		}
		a.size++
		for _, j := range numCols {
			if j == g {
				continue
			}
			if x, ok := t.Number(i, j); ok {
				a.sum[j] += x
				a.cnt[j]++
			}
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for k, a := range groups {
		gr := GroupResult{Key: fmt.Sprintf("%s=%s", t.Columns[g], k), Size: a.size, Means: map[string]float64{}}
		for j, c := range a.cnt {
			gr.Means[t.Columns[j]] = a.sum[j] / float64(c)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// correlations uses pairwise-complete rows for each pair of columns.
func correlations(t *dataset.Table, numCols []int) *CorrMatrix {
	k := len(numCols)
	cm := &CorrMatrix{Columns: make([]string, k), Values: make([][]float64, k)}
	for a, j := range numCols {
		cm.Columns[a] = t.Columns[j]
		cm.Values[a] = make([]float64, k)
		cm.Values[a][a] = 1
	}
	for a := 0; a < k; a++ {
		for b := a + 1; b < k; b++ {
			var xs, ys []float64
			for i := 0; i < t.NumRows(); i++ {
				x, okx := t.Number(i, numCols[a])
				y, oky := t.Number(i, numCols[b])
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			r := 0.0
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
				if math.IsNaN(r) || math.IsInf(r, 0) {
					r = 0
				}
				r = math.Max(-1, math.Min(1, r))
			}
			cm.Values[a][b] = r
			cm.Values[b][a] = r
		}
	}
	return cm
}

// medianMAD computes the median and the median absolute deviation.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between order statistics of sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

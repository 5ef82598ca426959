package resample

import (
	"fmt"
	"sort"
	"strings"
)

func (p *PermutationResult) Markdown() string {
	var b strings.Builder
	b.WriteString("[PERMUTATION TEST]\n")
	b.WriteString(fmt.Sprintf("Groups: %d treated, %d untreated\n", p.Treated, p.Untreated))
	b.WriteString(fmt.Sprintf("Observed difference in means: %.6g\n", p.Observed))
	b.WriteString(fmt.Sprintf("Alternative: %s\n", p.Alternative))
	b.WriteString(fmt.Sprintf("p = %d/%d = %.4g (MC std err %.2g)\n", p.Count, p.N, p.PValue, p.MCStdErr))
	return b.String()
}

func (r *BootstrapResult) Markdown() string {
	var b strings.Builder
	b.WriteString("[BOOTSTRAP]\n")
	b.WriteString(fmt.Sprintf("Sample size: %d, resamples: %d\n", r.Size, r.N))
	b.WriteString(fmt.Sprintf("Estimate: %.6g (std err %.4g)\n", r.Estimate, r.StdErr))
	b.WriteString(fmt.Sprintf("%.0f%% percentile interval: [%.6g, %.6g]\n", r.Level*100, r.Lower, r.Upper))
	return b.String()
}

func (c *CoverageResult) Markdown() string {
	var b strings.Builder
	b.WriteString("[COVERAGE STUDY]\n")
	b.WriteString(fmt.Sprintf("Distribution: %s (mean %.6g)\n", c.Distribution, c.TrueMean))
	b.WriteString(fmt.Sprintf("Trials: %d of size %d, %d resamples each\n", c.Trials, c.SampleSize, c.Resamples))
	b.WriteString(fmt.Sprintf("Nominal level: %.0f%%\n\n", c.Level*100))
	b.WriteString("| interval | coverage | mean width |\n| --- | --- | --- |\n")
	b.WriteString(fmt.Sprintf("| bootstrap percentile | %.3f ± %.3f | %.4g |\n", c.Coverage, c.MCStdErr, c.MeanWidth))
	b.WriteString(fmt.Sprintf("| t interval | %.3f | - |\n", c.TCoverage))
	return b.String()
}

func (s *PValueStudy) Markdown() string {
	var b strings.Builder
	b.WriteString("[NULL P-VALUE STUDY]\n")
	b.WriteString(fmt.Sprintf("Distribution: %s, %d tests of two samples of %d\n", s.Distribution, s.Tests, s.SampleSize))
	b.WriteString(fmt.Sprintf("Alpha: %g\n\n", s.Alpha))
	b.WriteString("| correction | rejections | rate |\n| --- | --- | --- |\n")
	b.WriteString(fmt.Sprintf("| none | %d | %.4f |\n", s.Rejections["raw"], s.RawRate))
	names := make([]string, 0, len(s.Adjusted))
	for k := range s.Adjusted {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteString(fmt.Sprintf("| %s | %d | %.4f |\n", k, s.Rejections[k], s.Adjusted[k]))
	}
	if s.Degenerate > 0 {
		b.WriteString(fmt.Sprintf("\n[NOTES]\n- %d tests had constant groups and were scored p = 1\n", s.Degenerate))
	}
	return b.String()
}

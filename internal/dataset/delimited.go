package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type delimitedReader struct{}

func (delimitedReader) CanRead(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func (delimitedReader) Read(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(filepath.Base(path), records, opt.MaxRows)
}

// sniffDelimiter picks ',', ';' or tab by counting unquoted occurrences in
// the first data line. Without any, the extension decides.
func sniffDelimiter(path string) rune {
	def := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		def = '\t'
	}
	f, err := os.Open(path)
	if err != nil {
		return def
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		counts := map[rune]int{}
		quoted := false
		for _, c := range line {
			switch {
			case c == '"':
				quoted = !quoted
			case !quoted && (c == ',' || c == ';' || c == '\t'):
				counts[c]++
			}
		}
		best := def
		for _, c := range []rune{',', ';', '\t'} {
			if counts[c] > counts[best] {
				best = c
			}
		}
		return best
	}
	return def
}

// ParseNumber reads a number written with optional thousands separators, a
// comma or dot decimal separator and a trailing percent sign.
func ParseNumber(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // Score (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

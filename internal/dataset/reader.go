package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how files are read and cells are parsed.
type Options struct {
	// Delimiter for text files. If 0, chosen from the extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects an XLSX sheet by name; SheetIndex is 1-based and used
	// when Sheet is empty.
	Sheet      string
	SheetIndex int
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// Reader loads one family of file formats.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader. Readers registered later are tried later.
func Register(r Reader) {
	registry = append(registry, r)
}

// Load reads path with the first reader that accepts it.
func Load(path string, opt Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			t, err := r.Read(path, opt)
			if err != nil {
				return nil, err
			}
			t.opt = opt
			if t.Name == "" {
				t.Name = filepath.Base(path)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func init() {
	Register(delimitedReader{})
	Register(xlsxReader{})
}

// fromRecords turns a header row and data rows into a table, stripping unit
// suffixes from header names.
func fromRecords(name string, records [][]string, maxRows int) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("dataset %s: missing header row", name)
	}
	header := records[0]
	t := &Table{Name: name, Columns: make([]string, len(header)), Units: make([]string, len(header))}
	seen := map[string]bool{}
	for i, h := range header {
		clean, unit := splitUnits(strings.TrimSpace(h))
		if clean == "" {
			clean = fmt.Sprintf("col%d", i+1)
		}
		if seen[strings.ToLower(clean)] {
			return nil, fmt.Errorf("dataset %s: duplicate column %q", name, clean)
		}
		seen[strings.ToLower(clean)] = true
		t.Columns[i] = clean
		t.Units[i] = unit
	}
	for _, r := range records[1:] {
		if maxRows > 0 && len(t.rows) >= maxRows {
			break
		}
		if blankRow(r) {
			continue
		}
		if len(r) < len(header) {
			tmp := make([]string, len(header))
			copy(tmp, r)
			r = tmp
		}
		t.rows = append(t.rows, r[:len(header)])
	}
	return t, nil
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

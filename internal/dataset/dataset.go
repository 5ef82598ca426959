// Package dataset loads tabular observation data from delimited text and
// XLSX files and exposes numeric columns, count columns and design matrices.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrColumnNotFound reports a column name missing from the header.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNonNumeric reports a cell that is not a valid number for its use.
	ErrNonNumeric = errors.New("non-numeric value")
	// ErrUnsupported reports a file type no reader accepts.
	ErrUnsupported = errors.New("unsupported dataset format")
)

// CellError locates a cell that failed to parse. Row is 1-based and counts
// data rows only.
type CellError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v (%q)", e.Row, e.Column, e.Err, e.Value)
}

func (e *CellError) Unwrap() error { return e.Err }

// InterceptName is the design-matrix column added for the intercept.
const InterceptName = "const"

// Table is a header plus rows of raw cell text. Cells are parsed on access so
// a table may carry label columns next to numeric ones.
type Table struct {
	Name    string
	Columns []string
	Units   []string
	rows    [][]string
	opt     Options
}

// NumRows is the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Cell returns the trimmed text of a cell.
func (t *Table) Cell(row, col int) string {
	r := t.rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Number parses a cell with the table's numeric locale.
func (t *Table) Number(row, col int) (float64, bool) {
	return ParseNumber(t.Cell(row, col), t.opt)
}

// Index resolves a column by name, ignoring case and unit suffixes.
func (t *Table) Index(name string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	clean, _ := splitUnits(name)
	wantClean := strings.ToLower(clean)
	for i, c := range t.Columns {
		lc := strings.ToLower(c)
		if lc == want || lc == wantClean {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q (have %s)", ErrColumnNotFound, name, strings.Join(t.Columns, ", "))
}

// Column returns a column as numbers with blank cells as NaN.
func (t *Table) Column(name string) ([]float64, error) {
	j, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		v := t.Cell(i, j)
		if v == "" {
			out[i] = math.NaN()
			continue
		}
		x, ok := t.Number(i, j)
		if !ok {
			return nil, &CellError{Row: i + 1, Column: t.Columns[j], Value: v, Err: ErrNonNumeric}
		}
		out[i] = x
	}
	return out, nil
}

// Values is Column with the blank cells dropped.
func (t *Table) Values(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := col[:0:0]
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Counts returns a column of non-negative integers. Blank cells are errors.
func (t *Table) Counts(name string) ([]int, error) {
	j, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(t.rows))
	for i := range t.rows {
		v := t.Cell(i, j)
		x, ok := t.Number(i, j)
		if !ok || x < 0 || x != math.Trunc(x) || x > math.MaxInt32 {
			return nil, &CellError{Row: i + 1, Column: t.Columns[j], Value: v, Err: ErrNonNumeric}
		}
		out[i] = int(x)
	}
	return out, nil
}

// Design builds a row-per-observation matrix from the named columns, with a
// leading column of ones when intercept is set. It returns the matrix and
// its column names. Blank cells are errors.
func (t *Table) Design(names []string, intercept bool) (*mat.Dense, []string, error) {
	var labels []string
	if intercept {
		labels = append(labels, InterceptName)
	}
	cols := make([][]float64, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		col, err := t.Column(n)
		if err != nil {
			return nil, nil, err
		}
		j, _ := t.Index(n)
		for i, v := range col {
			if math.IsNaN(v) {
				return nil, nil, &CellError{Row: i + 1, Column: t.Columns[j], Value: "", Err: ErrNonNumeric}
			}
		}
		cols = append(cols, col)
		labels = append(labels, t.Columns[j])
	}
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("design matrix needs at least one column or an intercept")
	}
	if len(t.rows) == 0 {
		return nil, nil, fmt.Errorf("design matrix: table %q has no rows", t.Name)
	}
	p := len(labels)
	data := make([]float64, 0, len(t.rows)*p)
	for i := range t.rows {
		if intercept {
			data = append(data, 1)
		}
		for _, c := range cols {
			data = append(data, c[i])
		}
	}
	return mat.NewDense(len(t.rows), p, data), labels, nil
}

// FromColumns builds a table from equal-length numeric columns.
func FromColumns(name string, names []string, cols [][]float64) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%d names for %d columns", len(names), len(cols))
	}
	n := 0
	if len(cols) > 0 {
		n = len(cols[0])
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(cols))
	}
	for j, c := range cols {
		if len(c) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d", names[j], len(c), n)
		}
		for i, v := range c {
			if !math.IsNaN(v) {
				rows[i][j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
	}
	return &Table{Name: name, Columns: append([]string(nil), names...), Units: make([]string, len(names)), rows: rows}, nil
}

// WriteCSV writes the header and rows as comma-separated text.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, r := range t.rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

package dataset

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrSheetNotFound reports a requested sheet missing from a workbook.
var ErrSheetNotFound = errors.New("sheet not found")

type xlsxReader struct{}

func (xlsxReader) CanRead(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".xlsx")
}

func (xlsxReader) Read(p string, opt Options) (*Table, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	wb := workbook{zr: &zr.Reader}
	target, err := wb.sheetPath(opt.Sheet, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	shared, err := wb.sharedStrings()
	if err != nil {
		return nil, fmt.Errorf("read shared strings: %w", err)
	}
	data, err := wb.file(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	rows, err := sheetRows(data, shared)
	if err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", target, err)
	}
	return fromRecords(filepath.Base(p), rows, opt.MaxRows)
}

type workbook struct {
	zr *zip.Reader
}

func (w workbook) file(name string) ([]byte, error) {
	for _, f := range w.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("missing %s", name)
}

type wbSheet struct {
	Name string `xml:"name,attr"`
	ID   int    `xml:"sheetId,attr"`
	RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// sheetPath resolves a sheet name, or a 1-based index when name is empty,
// to its part path inside the archive.
func (w workbook) sheetPath(name string, index int) (string, error) {
	var doc struct {
		Sheets []wbSheet `xml:"sheets>sheet"`
	}
	if data, err := w.file("xl/workbook.xml"); err == nil {
		if err := xml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("parse workbook: %w", err)
		}
	}
	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if data, err := w.file("xl/_rels/workbook.xml.rels"); err == nil {
		if err := xml.Unmarshal(data, &rels); err != nil {
			return "", fmt.Errorf("parse relationships: %w", err)
		}
	}
	target := func(rid string) string {
		for _, r := range rels.Items {
			if r.ID == rid {
				return relPath(r.Target)
			}
		}
		return ""
	}

	if name != "" {
		names := make([]string, 0, len(doc.Sheets))
		for _, s := range doc.Sheets {
			if strings.EqualFold(s.Name, name) {
				if t := target(s.RID); t != "" {
					return t, nil
				}
			}
			names = append(names, s.Name)
		}
		return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index <= len(doc.Sheets) {
		if t := target(doc.Sheets[index-1].RID); t != "" {
			return t, nil
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

// relPath maps a relationship target to an archive path. Targets may be
// absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func relPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func (w workbook) sharedStrings() ([]string, error) {
	data, err := w.file("xl/sharedStrings.xml")
	if err != nil {
		return nil, nil
	}
	var doc struct {
		Items []struct {
			T    string `xml:"t"`
			Runs []struct {
				T string `xml:"t"`
			} `xml:"r"`
		} `xml:"si"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make([]string, len(doc.Items))
	for i, si := range doc.Items {
		if len(si.Runs) == 0 {
			out[i] = si.T
			continue
		}
		var b strings.Builder
		for _, r := range si.Runs {
			b.WriteString(r.T)
		}
		out[i] = b.String()
	}
	return out, nil
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

// sheetRows streams <row> elements and places each cell at the column given
// by its reference, so sparse rows keep their alignment.
func sheetRows(data []byte, shared []string) ([][]string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var rows [][]string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row struct {
			Cells []xlsxCell `xml:"c"`
		}
		if err := dec.DecodeElement(&row, &se); err != nil {
			return nil, err
		}
		var out []string
		for i, c := range row.Cells {
			col := i
			if c.Ref != "" {
				col = colIndex(c.Ref)
			}
			if col < 0 {
				continue
			}
			for len(out) <= col {
				out = append(out, "")
			}
			out[col] = cellText(c, shared)
		}
		rows = append(rows, out)
	}
}

func cellText(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return c.Inline
	case "b":
		if c.Value == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		return c.Value
	}
}

// colIndex maps a cell reference like "C12" to a 0-based column.
func colIndex(ref string) int {
	idx := 0
	n := 0
	for _, r := range strings.ToUpper(ref) {
		if r < 'A' || r > 'Z' {
			break
		}
		idx = idx*26 + int(r-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}

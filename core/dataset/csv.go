package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"medicamentos-etl/core/utils"

	"golang.org/x/text/encoding/charmap"
)

// DefaultDelimiter is the delimiter of the canonical exchange file.
const DefaultDelimiter = ';'

// RawTable is an untyped delimited file: a header and string cells.
type RawTable struct {
	Header    []string
	Rows      [][]string
	Delimiter rune
}

// ReadOptions controls how a raw delimited file is decoded.
type ReadOptions struct {
	// Delimiter forces the field separator. Zero detects it from the header line.
	Delimiter rune
	// SkipRows discards preamble lines before the header.
	SkipRows int
	// Encoding is "utf-8" (default), "latin1" or "windows-1252".
	Encoding string
}

// Lookup returns the column position for a header, matched by HeaderKey.
func (r *RawTable) Lookup(name string) (int, bool) {
	want := utils.HeaderKey(name)
	for i, h := range r.Header {
		if utils.HeaderKey(h) == want {
			return i, true
		}
	}
	return -1, false
}

// ReadRawFile opens and decodes a delimited file.
func ReadRawFile(path string, opts ReadOptions) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := ReadRaw(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}

// ReadRaw decodes a delimited stream. Short rows are padded and long rows truncated
// to the header width.
func ReadRaw(r io.Reader, opts ReadOptions) (*RawTable, error) {
	decoded, err := decoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(decoded)

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("file ended inside the %d-line preamble", opts.SkipRows)
		}
	}

	headerLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if strings.TrimSpace(headerLine) == "" {
		return nil, errors.New("missing header line")
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(headerLine)
	}

	reader := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	raw := &RawTable{Header: header, Delimiter: delim}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", len(raw.Rows)+1, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make([]string, len(header))
		copy(row, rec)
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(encoding, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func detectDelimiter(line string) rune {
	best, count := DefaultDelimiter, 0
	for _, d := range []rune{';', ',', '\t'} {
		if n := strings.Count(line, string(d)); n > count {
			best, count = d, n
		}
	}
	return best
}

// FromRaw types a raw table against a column schema. Columns are matched by header
// key; absent columns yield a SchemaError. Unparseable numeric cells become nil and
// are counted in the returned value.
func FromRaw(raw *RawTable, name string, columns []Column, key []string) (*Table, int, error) {
	positions := make([]int, len(columns))
	var missing []string
	for i, c := range columns {
		pos, ok := raw.Lookup(c.Name)
		if !ok {
			missing = append(missing, c.Name)
			continue
		}
		positions[i] = pos
	}
	if len(missing) > 0 {
		return nil, 0, &SchemaError{Source: name, Missing: missing}
	}

	t := &Table{Name: name, Columns: columns, Key: key, Rows: make([][]any, 0, len(raw.Rows))}
	bad := 0
	for _, rec := range raw.Rows {
		row := make([]any, len(columns))
		for i, c := range columns {
			v := strings.TrimSpace(rec[positions[i]])
			if v == "" {
				continue
			}
			if c.Type == Numeric {
				f, ok := utils.ParseLocaleNumber(v)
				if !ok {
					bad++
					continue
				}
				row[i] = f
				continue
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, bad, nil
}

// InferColumns derives a schema from a raw table: a column is numeric when every
// non-empty cell parses as a plain number, text otherwise.
func InferColumns(raw *RawTable) []Column {
	cols := make([]Column, len(raw.Header))
	for i, h := range raw.Header {
		numeric, seen := true, false
		for _, rec := range raw.Rows {
			v := strings.TrimSpace(rec[i])
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
		}
		cols[i] = Column{Name: h, Type: Text}
		if numeric && seen {
			cols[i].Type = Numeric
		}
	}
	return cols
}

// WriteCSV writes the table in the canonical exchange format: UTF-8 with BOM,
// ';'-delimited, fixed header.
func WriteCSV(w io.Writer, t *Table) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = DefaultDelimiter
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			rec[i] = utils.FormatValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path through a temporary file, so readers never
// observe a half-written exchange file.
func WriteFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

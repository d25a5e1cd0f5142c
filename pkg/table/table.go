// Package table loads a delimited text file into memory as a header plus
// ordered rows of string cells.
package table

import (
	"bufio"
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
)

// Stdin is the path that makes Read consume standard input.
const Stdin = "-"

const utf8BOM = "\ufeff"

// Table is an in-memory input table. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// New builds a table from a header and rows. Rows are not copied.
func New(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		// first occurrence wins for duplicated header names
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}
}

// Index returns the position of a column in the header.
func (t *Table) Index(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.Header) }

// Options control how a file is parsed.
type Options struct {
	// Comma is the field separator; zero means ','
	Comma rune
	// LazyQuotes allows a quote to appear in an unquoted field
	LazyQuotes bool
	// Compression forces a codec; empty detects it from the path suffix
	Compression compression.Algorithm
}

// Read loads path into memory. A missing or unreadable file yields an
// ErrorTypeSourceNotFound error; malformed content yields ErrorTypeTransform.
func Read(ctx context.Context, path string, opts Options) (*Table, error) {
	var src io.Reader
	if path == Stdin {
		src = os.Stdin
	} else {
		f, err := os.Open(path) //nolint:gosec // G304: input path is operator supplied
		if err != nil {
			return nil, errors.SourceNotFound(path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, errors.SourceNotFound(path, err)
		}
		if info.IsDir() {
			return nil, errors.SourceNotFound(path, stderrors.New("is a directory"))
		}
		src = f
	}

	alg := opts.Compression
	if alg == "" {
		alg = compression.FromPath(path)
	}
	rc, err := compression.NewReader(bufio.NewReaderSize(src, 64*1024), alg)
	if err != nil {
		return nil, errors.Unexpected(err, "failed to open "+string(alg)+" stream").WithDetail("path", path)
	}
	defer rc.Close()

	t, err := Parse(ctx, rc, opts)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			e.WithDetail("path", path)
		}
		return nil, err
	}

	logger.WithContext(ctx).Info("input loaded",
		zap.String("path", path),
		zap.String("compression", string(alg)),
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()))
	return t, nil
}

// Parse reads a header row followed by data rows from r. Every data row must
// have as many fields as the header.
func Parse(ctx context.Context, r io.Reader, opts Options) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = 0
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeTransform, "input has no header row")
	}
	if err != nil {
		return nil, parseError(err, "failed to read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rows := make([][]string, 0, 1024)
	for {
		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeTransform, "input read cancelled")
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(err, "malformed input row")
		}
		rows = append(rows, record)
	}

	return New(header, rows), nil
}

func parseError(err error, msg string) error {
	e := errors.Unexpected(err, msg)
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		e.WithDetail("line", pe.Line)
		if stderrors.Is(pe.Err, csv.ErrFieldCount) {
			e.Message = "row has a different number of fields than the header"
		}
	}
	return e
}

// Package reshape turns a wide table, one column per category holding a
// delimited series, into a long table with one row per record and category
// and the series spread over positional columns.
//
// The transform runs in four passes over in-memory data:
//
//	validate  every configured column exists in the header
//	melt      one row per (category, input row), category-outer
//	split     trim the delimiter from both ends, split, and size N
//	assemble  ids + category name + exactly N positional values
//
// Values beyond a row's token count are Missing.
package reshape

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
	rstrings "github.com/ajitpratap0/reshape/pkg/strings"
	"github.com/ajitpratap0/reshape/pkg/table"
)

const tracerName = "github.com/ajitpratap0/reshape/pkg/reshape"

// Value is one positional cell. Valid is false for a missing value, which
// encoders distinguish from a present empty string.
type Value struct {
	S     string
	Valid bool
}

// Present returns a non-missing value.
func Present(s string) Value { return Value{S: s, Valid: true} }

// Missing is the value of a position past the end of a row's series.
var Missing = Value{}

// MeltedRow is an intermediate row: one input row paired with one category.
type MeltedRow struct {
	// Source is the index of the input row
	Source   int
	IDs      []string
	Category string
	Cell     string
}

// Row is one output row.
type Row struct {
	IDs      []string
	Category string
	Values   []Value
}

// Result is the long table.
type Result struct {
	// Columns is the full header: ids, category column, positional columns
	Columns         []string
	IDColumns       []string
	CategoryColumn  string
	PositionColumns []string
	Rows            []Row

	// CategoryColumns are the input columns that were melted
	CategoryColumns []string

	// InputRows and InputColumns describe the table the result came from
	InputRows    int
	InputColumns int
}

// N returns the number of positional columns.
func (r *Result) N() int { return len(r.PositionColumns) }

// Len returns the number of output rows.
func (r *Result) Len() int { return len(r.Rows) }

// Record flattens row i into strings, writing missing for absent values.
func (r *Result) Record(i int, missing string) []string {
	row := r.Rows[i]
	rec := make([]string, 0, len(r.Columns))
	rec = append(rec, row.IDs...)
	rec = append(rec, row.Category)
	for _, v := range row.Values {
		if v.Valid {
			rec = append(rec, v.S)
		} else {
			rec = append(rec, missing)
		}
	}
	return rec
}

// Reshape validates opts against the input header and produces the long table.
// A configured column absent from the header yields an ErrorTypeMissingColumn
// error naming the first one found, identifiers checked before categories.
func Reshape(ctx context.Context, in *table.Table, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "reshape")
	defer span.End()

	res, err := run(ctx, in, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("reshape.input_rows", res.InputRows),
		attribute.Int("reshape.output_rows", res.Len()),
		attribute.Int("reshape.positions", res.N()),
	)
	return res, nil
}

func run(ctx context.Context, in *table.Table, opts Options) (*Result, error) {
	idIdx, catIdx, err := Validate(in, opts)
	if err != nil {
		return nil, err
	}

	melted, err := Melt(ctx, in, opts, idIdx, catIdx)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info("melted",
		zap.Int("rows", len(melted)),
		zap.Int("categories", len(opts.CategoryColumns)))

	tokens, n := Split(ctx, melted, opts.CellDelimiter)
	logger.WithContext(ctx).Info("split", zap.Int("positions", n))

	return Assemble(ctx, in, opts, melted, tokens, n)
}

// Validate resolves the header positions of the identifier and category
// columns.
func Validate(in *table.Table, opts Options) (idIdx, catIdx []int, err error) {
	idIdx = make([]int, len(opts.IDColumns))
	for i, col := range opts.IDColumns {
		j, ok := in.Index(col)
		if !ok {
			return nil, nil, errors.MissingColumn(col)
		}
		idIdx[i] = j
	}

	catIdx = make([]int, len(opts.CategoryColumns))
	for i, col := range opts.CategoryColumns {
		j, ok := in.Index(col)
		if !ok {
			return nil, nil, errors.MissingColumn(col)
		}
		catIdx[i] = j
	}
	return idIdx, catIdx, nil
}

// Melt pairs every input row with every category column. The first
// len(in.Rows) melted rows carry the first category, and so on.
func Melt(ctx context.Context, in *table.Table, opts Options, idIdx, catIdx []int) ([]MeltedRow, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "reshape.melt")
	defer span.End()

	ids := make([][]string, len(in.Rows))
	for r, row := range in.Rows {
		if len(row) != in.Width() {
			return nil, errors.Newf(errors.ErrorTypeTransform,
				"row %d has %d fields, header has %d", r+1, len(row), in.Width()).
				WithDetail("row", r+1)
		}
		vals := make([]string, len(idIdx))
		for i, j := range idIdx {
			vals[i] = row[j]
		}
		ids[r] = vals
	}

	melted := make([]MeltedRow, 0, len(in.Rows)*len(catIdx))
	for c, j := range catIdx {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeTransform, "reshape cancelled")
		}
		category := opts.CategoryColumns[c]
		for r, row := range in.Rows {
			melted = append(melted, MeltedRow{
				Source:   r,
				IDs:      ids[r],
				Category: category,
				Cell:     row[j],
			})
		}
	}
	span.SetAttributes(attribute.Int("reshape.melted_rows", len(melted)))
	return melted, nil
}

// Split tokenizes every melted cell and returns the tokens with N, the
// largest token count.
func Split(ctx context.Context, melted []MeltedRow, delimiter string) ([][]string, int) {
	_, span := otel.Tracer(tracerName).Start(ctx, "reshape.split")
	defer span.End()

	tokens := make([][]string, len(melted))
	n := 0
	for i, m := range melted {
		tokens[i] = rstrings.Tokens(m.Cell, delimiter)
		if len(tokens[i]) > n {
			n = len(tokens[i])
		}
	}
	span.SetAttributes(attribute.Int("reshape.positions", n))
	return tokens, n
}

// Assemble builds output rows of exactly n positional values.
func Assemble(ctx context.Context, in *table.Table, opts Options, melted []MeltedRow, tokens [][]string, n int) (*Result, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "reshape.assemble")
	defer span.End()

	positions := PositionColumns(opts.PositionPrefix, n)
	columns := make([]string, 0, len(opts.IDColumns)+1+n)
	columns = append(columns, opts.IDColumns...)
	columns = append(columns, opts.CategoryColumn)
	columns = append(columns, positions...)

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, errors.Newf(errors.ErrorTypeConfig, "output column %q is produced twice", c).
				WithDetail("column", c)
		}
		seen[c] = true
	}

	values := make([]Value, len(melted)*n)
	rows := make([]Row, len(melted))
	for i, m := range melted {
		vals := values[i*n : (i+1)*n : (i+1)*n]
		for p, tok := range tokens[i] {
			vals[p] = Present(tok)
		}
		rows[i] = Row{IDs: m.IDs, Category: m.Category, Values: vals}
	}

	return &Result{
		Columns:         columns,
		IDColumns:       opts.IDColumns,
		CategoryColumn:  opts.CategoryColumn,
		PositionColumns: positions,
		Rows:            rows,
		CategoryColumns: opts.CategoryColumns,
		InputRows:       in.Len(),
		InputColumns:    in.Width(),
	}, nil
}

// PositionColumns returns prefix1..prefixN.
func PositionColumns(prefix string, n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = prefix + strconv.Itoa(i+1)
	}
	return cols
}

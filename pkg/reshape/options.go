package reshape

import (
	"github.com/ajitpratap0/reshape/pkg/errors"
)

// Options configures the transform. The output field separator is not part
// of it; it belongs to the encoder.
type Options struct {
	// IDColumns are copied unchanged into every output row, in this order
	IDColumns []string
	// CategoryColumns are melted, in this order
	CategoryColumns []string
	// CellDelimiter separates values inside a category cell
	CellDelimiter string
	// CategoryColumn names the output column holding the category name; empty means "Emocao"
	CategoryColumn string
	// PositionPrefix prefixes the positional column names; empty means "T_"
	PositionPrefix string
}

// DefaultOptions returns the options for the emotion export layout.
func DefaultOptions() Options {
	return Options{
		IDColumns:       []string{"Id", "Ip", "Data-Hora", "Nome", "Etapas", "Amostra", "Cod", "Contador"},
		CategoryColumns: []string{"Neutral", "Happy", "Sad", "Angry", "Disgusted", "Surprised", "Fearful"},
		CellDelimiter:   ";",
		CategoryColumn:  "Emocao",
		PositionPrefix:  "T_",
	}
}

func (o Options) withDefaults() Options {
	if o.CategoryColumn == "" {
		o.CategoryColumn = "Emocao"
	}
	if o.PositionPrefix == "" {
		o.PositionPrefix = "T_"
	}
	return o
}

// Validate reports configuration problems as ErrorTypeConfig errors.
func (o Options) Validate() error {
	o = o.withDefaults()

	if len(o.IDColumns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "at least one identifier column is required")
	}
	if len(o.CategoryColumns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "at least one category column is required")
	}
	if o.CellDelimiter == "" {
		return errors.New(errors.ErrorTypeConfig, "cell delimiter cannot be empty")
	}

	seen := make(map[string]bool, len(o.IDColumns)+len(o.CategoryColumns))
	for _, col := range append(append([]string(nil), o.IDColumns...), o.CategoryColumns...) {
		if col == "" {
			return errors.New(errors.ErrorTypeConfig, "column names cannot be empty")
		}
		if seen[col] {
			return errors.Newf(errors.ErrorTypeConfig, "column %q is listed more than once", col).
				WithDetail("column", col)
		}
		seen[col] = true
	}
	if seen[o.CategoryColumn] {
		return errors.Newf(errors.ErrorTypeConfig, "category column name %q collides with an input column", o.CategoryColumn)
	}
	return nil
}

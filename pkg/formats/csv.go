package formats

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ajitpratap0/reshape/pkg/reshape"
)

type csvEncoder struct {
	comma   rune
	missing string
}

func newCSVEncoder(cfg *WriterConfig) (Encoder, error) {
	comma := cfg.Comma
	if comma == 0 {
		comma = ';'
	}
	return &csvEncoder{comma: comma, missing: cfg.Missing}, nil
}

func (e *csvEncoder) Format() Format { return CSV }

func (e *csvEncoder) Encode(w io.Writer, res *reshape.Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = e.comma

	if err := cw.Write(res.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range res.Rows {
		if err := cw.Write(res.Record(i, e.missing)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

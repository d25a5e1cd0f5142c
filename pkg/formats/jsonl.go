package formats

import (
	"bufio"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/reshape/pkg/reshape"
)

type jsonlEncoder struct{}

func newJSONLEncoder(*WriterConfig) (Encoder, error) { return jsonlEncoder{}, nil }

func (jsonlEncoder) Format() Format { return JSONL }

// Encode writes one object per row. Keys follow the column order, so objects
// are assembled by hand rather than from a map.
func (jsonlEncoder) Encode(w io.Writer, res *reshape.Result) error {
	keys := make([][]byte, len(res.Columns))
	for i, c := range res.Columns {
		k, err := gojson.Marshal(c)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	bw := bufio.NewWriterSize(w, 64*1024)
	buf := make([]byte, 0, 256)
	for i, row := range res.Rows {
		buf = append(buf[:0], '{')
		col := 0
		field := func(v []byte) {
			if col > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, keys[col]...)
			buf = append(buf, ':')
			buf = append(buf, v...)
			col++
		}

		for _, id := range row.IDs {
			v, err := gojson.Marshal(id)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			field(v)
		}
		v, err := gojson.Marshal(row.Category)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		field(v)
		for _, val := range row.Values {
			if !val.Valid {
				field([]byte("null"))
				continue
			}
			v, err := gojson.Marshal(val.S)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			field(v)
		}

		buf = append(buf, '}', '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

package formats

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// parquetBatchRows bounds the size of each arrow record handed to the writer
const parquetBatchRows = 64 * 1024

type parquetEncoder struct {
	compression compress.Compression
}

func newParquetEncoder(cfg *WriterConfig) (Encoder, error) {
	c, err := getParquetCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return &parquetEncoder{compression: c}, nil
}

func (e *parquetEncoder) Format() Format { return Parquet }

func (e *parquetEncoder) Encode(w io.Writer, res *reshape.Result) error {
	schema := ArrowSchema(res)

	pool := memory.NewGoAllocator()
	props := parquet.NewWriterProperties(
		parquet.WithCompression(e.compression),
		parquet.WithDictionaryDefault(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool))

	fw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create Parquet writer: %w", err)
	}

	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	nIDs := len(res.IDColumns)
	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		record := builder.NewRecord()
		defer record.Release()
		pending = 0
		if err := fw.Write(record); err != nil {
			return fmt.Errorf("failed to write record batch: %w", err)
		}
		return nil
	}

	for _, row := range res.Rows {
		for i, id := range row.IDs {
			builder.Field(i).(*array.StringBuilder).Append(id)
		}
		builder.Field(nIDs).(*array.StringBuilder).Append(row.Category)
		for p, v := range row.Values {
			b := builder.Field(nIDs + 1 + p).(*array.StringBuilder)
			if v.Valid {
				b.Append(v.S)
			} else {
				b.AppendNull()
			}
		}

		pending++
		if pending == parquetBatchRows {
			if err := flush(); err != nil {
				_ = fw.Close()
				return err
			}
		}
	}
	if err := flush(); err != nil {
		_ = fw.Close()
		return err
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	return nil
}

// ArrowSchema returns the all-string schema of a result. Positional columns
// are nullable.
func ArrowSchema(res *reshape.Result) *arrow.Schema {
	fields := make([]arrow.Field, len(res.Columns))
	for i, name := range res.Columns {
		fields[i] = arrow.Field{
			Name:     name,
			Type:     arrow.BinaryTypes.String,
			Nullable: i > len(res.IDColumns),
		}
	}
	return arrow.NewSchema(fields, nil)
}

func getParquetCompression(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "none", "null":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression: %s", name)
	}
}

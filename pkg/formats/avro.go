package formats

import (
	"fmt"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// AvroRecordName is the name of the record schema written to avro files.
const AvroRecordName = "reshape_row"

type avroEncoder struct {
	codec string
}

func newAvroEncoder(cfg *WriterConfig) (Encoder, error) {
	codec, err := getAvroCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return &avroEncoder{codec: codec}, nil
}

func (e *avroEncoder) Format() Format { return Avro }

func (e *avroEncoder) Encode(w io.Writer, res *reshape.Result) error {
	names := AvroFieldNames(res.Columns)
	schema, err := avroSchema(res, names)
	if err != nil {
		return err
	}

	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return fmt.Errorf("failed to create Avro codec: %w", err)
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: e.codec,
	})
	if err != nil {
		return fmt.Errorf("failed to create Avro writer: %w", err)
	}

	const batchSize = 1024
	batch := make([]interface{}, 0, batchSize)
	nIDs := len(res.IDColumns)
	for _, row := range res.Rows {
		native := make(map[string]interface{}, len(names))
		for i, id := range row.IDs {
			native[names[i]] = id
		}
		native[names[nIDs]] = row.Category
		for p, v := range row.Values {
			if v.Valid {
				native[names[nIDs+1+p]] = goavro.Union("string", v.S)
			} else {
				native[names[nIDs+1+p]] = nil
			}
		}

		batch = append(batch, native)
		if len(batch) == batchSize {
			if err := ocfWriter.Append(batch); err != nil {
				return fmt.Errorf("failed to write Avro record: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := ocfWriter.Append(batch); err != nil {
			return fmt.Errorf("failed to write Avro record: %w", err)
		}
	}
	return nil
}

func avroSchema(res *reshape.Result, names []string) (string, error) {
	nIDs := len(res.IDColumns)
	fields := make([]map[string]interface{}, len(names))
	for i, name := range names {
		f := map[string]interface{}{"name": name}
		if name != res.Columns[i] {
			f["doc"] = res.Columns[i]
		}
		if i <= nIDs {
			f["type"] = "string"
		} else {
			f["type"] = []string{"null", "string"}
			f["default"] = nil
		}
		fields[i] = f
	}

	schema, err := gojson.Marshal(map[string]interface{}{
		"type":   "record",
		"name":   AvroRecordName,
		"fields": fields,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build Avro schema: %w", err)
	}
	return string(schema), nil
}

// AvroFieldNames maps column names to valid, unique Avro names: characters
// outside [A-Za-z0-9_] become '_', a leading digit gains a '_' prefix and
// repeats gain a numeric suffix.
func AvroFieldNames(columns []string) []string {
	names := make([]string, len(columns))
	used := make(map[string]bool, len(columns))
	for i, col := range columns {
		b := []byte(col)
		for j, c := range b {
			if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				b[j] = '_'
			}
		}
		name := string(b)
		if name == "" || name[0] >= '0' && name[0] <= '9' {
			name = "_" + name
		}
		base := name
		for k := 2; used[name]; k++ {
			name = base + "_" + strconv.Itoa(k)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func getAvroCompression(compression string) (string, error) {
	switch compression {
	case "", "deflate":
		return goavro.CompressionDeflateLabel, nil
	case "snappy":
		return goavro.CompressionSnappyLabel, nil
	case "null", "none":
		return goavro.CompressionNullLabel, nil
	default:
		return "", fmt.Errorf("unsupported avro codec: %s", compression)
	}
}

package formats

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	gojson "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/reshape/pkg/reshape"
	"github.com/ajitpratap0/reshape/pkg/table"
)

func sampleResult(t *testing.T) *reshape.Result {
	t.Helper()
	in := table.New(
		[]string{"Id", "Data-Hora", "Neutral", "Happy"},
		[][]string{
			{"1", "2023-05-01 10:00", "0.1;0.2", "0.5;0.6;0.7"},
			{"2", "2023-05-01 10:01", "", "0.9;;0.3"},
		},
	)
	res, err := reshape.Reshape(context.Background(), in, reshape.Options{
		IDColumns:       []string{"Id", "Data-Hora"},
		CategoryColumns: []string{"Neutral", "Happy"},
		CellDelimiter:   ";",
	})
	require.NoError(t, err)
	return res
}

func encode(t *testing.T, f Format, cfg *WriterConfig) []byte {
	t.Helper()
	enc, err := New(f, cfg)
	require.NoError(t, err)
	assert.Equal(t, f, enc.Format())

	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, sampleResult(t)))
	return buf.Bytes()
}

func TestCSVEncoder(t *testing.T) {
	out := encode(t, CSV, nil)

	expected := "Id;Data-Hora;Emocao;T_1;T_2;T_3\n" +
		"1;2023-05-01 10:00;Neutral;0.1;0.2;\n" +
		"2;2023-05-01 10:01;Neutral;;;\n" +
		"1;2023-05-01 10:00;Happy;0.5;0.6;0.7\n" +
		"2;2023-05-01 10:01;Happy;0.9;;0.3\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVEncoderOptions(t *testing.T) {
	out := encode(t, CSV, &WriterConfig{Comma: ',', Missing: "NA"})

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Id,Data-Hora,Emocao,T_1,T_2,T_3", lines[0])
	assert.Equal(t, "1,2023-05-01 10:00,Neutral,0.1,0.2,NA", lines[1])
	// a present empty token is not the missing marker
	assert.Equal(t, "2,2023-05-01 10:01,Happy,0.9,,0.3", lines[4])
}

func TestJSONLEncoder(t *testing.T) {
	out := encode(t, JSONL, nil)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 4)

	assert.Equal(t,
		`{"Id":"1","Data-Hora":"2023-05-01 10:00","Emocao":"Neutral","T_1":"0.1","T_2":"0.2","T_3":null}`,
		lines[0])

	var row map[string]interface{}
	require.NoError(t, gojson.Unmarshal([]byte(lines[3]), &row))
	assert.Equal(t, "Happy", row["Emocao"])
	assert.Equal(t, "", row["T_2"])
	assert.Equal(t, "0.3", row["T_3"])
}

func TestAvroEncoder(t *testing.T) {
	for _, codec := range []string{"null", "deflate", "snappy"} {
		t.Run(codec, func(t *testing.T) {
			out := encode(t, Avro, &WriterConfig{Compression: codec})

			ocfr, err := goavro.NewOCFReader(bytes.NewReader(out))
			require.NoError(t, err)

			var rows []map[string]interface{}
			for ocfr.Scan() {
				datum, err := ocfr.Read()
				require.NoError(t, err)
				rows = append(rows, datum.(map[string]interface{}))
			}
			require.NoError(t, ocfr.Err())
			require.Len(t, rows, 4)

			first := rows[0]
			assert.Equal(t, "1", first["Id"])
			assert.Equal(t, "2023-05-01 10:00", first["Data_Hora"])
			assert.Equal(t, "Neutral", first["Emocao"])
			assert.Equal(t, map[string]interface{}{"string": "0.1"}, first["T_1"])
			assert.Nil(t, first["T_3"])
		})
	}
}

func TestAvroEncoderBadCodec(t *testing.T) {
	_, err := New(Avro, &WriterConfig{Compression: "lzma"})
	assert.Error(t, err)
}

func TestAvroFieldNames(t *testing.T) {
	assert.Equal(t,
		[]string{"Id", "Data_Hora", "_1st", "Data_Hora_2", "_", "T_1"},
		AvroFieldNames([]string{"Id", "Data-Hora", "1st", "Data Hora", "", "T_1"}))
}

func TestParquetEncoder(t *testing.T) {
	out := encode(t, Parquet, nil)

	rdr, err := file.NewParquetReader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.EqualValues(t, 4, rdr.NumRows())
	assert.Equal(t, 6, rdr.MetaData().Schema.NumColumns())
	require.NoError(t, rdr.Close())

	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(out),
		parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, "Emocao", tbl.Schema().Field(2).Name)
	t3 := tbl.Column(5).Data().Chunk(0).(*array.String)
	assert.True(t, t3.IsNull(0))
	assert.Equal(t, "0.7", t3.Value(2))

	cat := tbl.Column(2).Data().Chunk(0).(*array.String)
	assert.Equal(t, "Happy", cat.Value(3))
}

func TestParquetEncoderBadCompression(t *testing.T) {
	_, err := New(Parquet, &WriterConfig{Compression: "lzma"})
	assert.Error(t, err)
}

func TestFromPath(t *testing.T) {
	tests := map[string]Format{
		"resultado_c.csv":       CSV,
		"resultado_c.csv.gz":    CSV,
		"out.txt":               CSV,
		"out.jsonl":             JSONL,
		"out.ndjson.zst":        JSONL,
		"s3://bucket/out.avro":  Avro,
		"gs://bucket/x.parquet": Parquet,
		"postgres://db?table=x": CSV,
	}
	for path, want := range tests {
		assert.Equal(t, want, FromPath(path), path)
	}
}

func TestResolve(t *testing.T) {
	f, err := Resolve("auto", "out.parquet")
	require.NoError(t, err)
	assert.Equal(t, Parquet, f)

	f, err = Resolve("jsonl", "out.csv")
	require.NoError(t, err)
	assert.Equal(t, JSONL, f)

	_, err = Resolve("xlsx", "out.csv")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"avro", "csv", "jsonl", "parquet"}, Names())
	assert.True(t, IsRegistered("csv"))
	assert.False(t, IsRegistered("orc"))

	info := GetFormatInfo(Parquet)
	require.NotNil(t, info)
	assert.False(t, info.Compressible)
	assert.True(t, GetFormatInfo(CSV).Compressible)
	assert.Nil(t, GetFormatInfo("orc"))

	assert.Error(t, Register(FormatInfo{Format: CSV}, newCSVEncoder))
}

package summary

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/reshape/pkg/reshape"
	"github.com/ajitpratap0/reshape/pkg/table"
)

func result(t *testing.T) *reshape.Result {
	t.Helper()
	in := table.New(
		[]string{"Id", "Neutral", "Happy"},
		[][]string{
			{"1", "0.1;0.2", "0.5;0.6;0.7"},
			{"2", "0.3", ""},
		},
	)
	res, err := reshape.Reshape(context.Background(), in, reshape.Options{
		IDColumns:       []string{"Id"},
		CategoryColumns: []string{"Neutral", "Happy"},
		CellDelimiter:   ";",
	})
	require.NoError(t, err)
	return res
}

func TestSummaryWrite(t *testing.T) {
	s := New("resultado.csv", result(t), 5)
	s.Saved("resultado_c.csv", "csv", "none", 120)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	out := buf.String()

	assert.Contains(t, out, "resultado.csv (2 rows, 3 columns)")
	assert.Contains(t, out, "Rows after melt:  4")
	assert.Contains(t, out, "Time columns:     3 (T_1..T_3)")
	assert.Contains(t, out, "Output columns:   5")
	assert.Contains(t, out, "Saved to:         resultado_c.csv (csv, 120 bytes)")
	assert.Contains(t, out, "First 4 rows:")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	last := strings.Fields(lines[len(lines)-1])
	assert.Equal(t, []string{"2", "Happy", "NA", "NA", "NA"}, last)
}

func TestSummaryPreviewLimit(t *testing.T) {
	s := New("in.csv", result(t), 1)
	require.Len(t, s.Preview, 1)
	assert.Equal(t, []string{"1", "Neutral", "0.1", "0.2", PreviewMissing}, s.Preview[0])

	s = New("in.csv", result(t), 0)
	assert.Empty(t, s.Preview)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	assert.NotContains(t, buf.String(), "First")
}

func TestSummaryDryRun(t *testing.T) {
	s := New("in.csv", result(t), 0)
	s.DryRun = true

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	assert.Contains(t, buf.String(), "dry run, nothing written")
}

func TestSummaryCompressedOutput(t *testing.T) {
	s := New("in.csv", result(t), 0)
	s.Saved("s3://bucket/out.csv.gz", "csv", "gzip", 64)
	assert.Equal(t, "csv, gzip, 64 bytes", s.describeOutput())
}

func TestPositions(t *testing.T) {
	assert.Equal(t, "0", positions(nil))
	assert.Equal(t, "1 (T_1)", positions([]string{"T_1"}))
	assert.Equal(t, "2 (T_1..T_2)", positions([]string{"T_1", "T_2"}))
}

// Package testutil provides fixtures and helpers shared by reshape tests
package testutil

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/reshape/pkg/logger"
)

// IDColumns and CategoryColumns describe the default input layout.
var (
	IDColumns       = []string{"Id", "Ip", "Data-Hora", "Nome", "Etapas", "Amostra", "Cod", "Contador"}
	CategoryColumns = []string{"Neutral", "Happy", "Sad", "Angry", "Disgusted", "Surprised", "Fearful"}
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// UseTestLogger routes the global logger to the test output until the test ends.
func UseTestLogger(t *testing.T) {
	t.Helper()
	prev := logger.Get()
	logger.Set(zaptest.NewLogger(t))
	t.Cleanup(func() { logger.Set(prev) })
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WideHeader returns the default input header: identifiers then categories.
func WideHeader() []string {
	h := make([]string, 0, len(IDColumns)+len(CategoryColumns))
	h = append(h, IDColumns...)
	return append(h, CategoryColumns...)
}

// WideRow builds data row i of the default layout. Category j of row i holds
// (i+j)%4+1 values with a trailing delimiter, as the exports do.
func WideRow(i int) []string {
	row := []string{
		fmt.Sprint(i + 1),
		fmt.Sprintf("10.0.0.%d", i+1),
		fmt.Sprintf("2023-05-10 14:%02d:00", i%60),
		fmt.Sprintf("Aluno %d", i+1),
		"1",
		"A",
		fmt.Sprintf("C%03d", i+1),
		fmt.Sprint(i),
	}
	for j := range CategoryColumns {
		n := (i+j)%4 + 1
		vals := make([]string, n)
		for k := range vals {
			vals[k] = fmt.Sprintf("0.%d%d", j, k)
		}
		row = append(row, strings.Join(vals, ";")+";")
	}
	return row
}

// WideCSV renders header and rows as comma separated text.
func WideCSV(t *testing.T, header []string, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	return buf.Bytes()
}

// WriteWideCSV writes n rows of the default layout to dir/name and returns the path.
func WriteWideCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = WideRow(i)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, WideCSV(t, WideHeader(), rows), 0o600))
	return path
}

// ReadCSV reads a whole delimited file.
func ReadCSV(t *testing.T, path string, comma rune) [][]string {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test fixture
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

// AssertNoFile fails the test if path exists.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s not to exist", path)
}

package main

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/testutil"
)

type CLITestSuite struct {
	testutil.IntegrationTestSuite

	stdout bytes.Buffer
	stderr bytes.Buffer
	input  string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupTest() {
	s.stdout.Reset()
	s.stderr.Reset()
	s.input = testutil.WriteWideCSV(s.T(), s.TempDir(), "resultado.csv", 3)
}

func (s *CLITestSuite) run(args ...string) int {
	return execute(args, &s.stdout, &s.stderr)
}

func (s *CLITestSuite) TestRunWritesLongTable() {
	out := s.Path("resultado_c.csv")

	code := s.run("run", "--input", s.input, "--output", out)
	s.Require().Equal(errors.ExitOK, code, s.stderr.String())

	records := testutil.ReadCSV(s.T(), out, ';')
	s.Require().Len(records, 1+3*7)

	header := append(append([]string{}, testutil.IDColumns...), "Emocao", "T_1", "T_2", "T_3", "T_4")
	s.Equal(header, records[0])
	s.Equal([]string{
		"1", "10.0.0.1", "2023-05-10 14:00:00", "Aluno 1", "1", "A", "C001", "0",
		"Neutral", "0.00", "", "", "",
	}, records[1])

	// category-outer: the fourth output row is Happy for the first input row
	s.Equal("Happy", records[4][8])
	s.Equal("1", records[4][0])

	summary := s.stdout.String()
	s.Contains(summary, "Rows after melt:  21")
	s.Contains(summary, "4 (T_1..T_4)")
	s.Contains(summary, out)
	s.Contains(summary, "First 5 rows:")
}

func (s *CLITestSuite) TestRootRunsWithoutSubcommand() {
	out := s.Path("root.csv")
	s.Require().Equal(errors.ExitOK, s.run("-i", s.input, "-o", out, "--preview", "0"), s.stderr.String())
	s.FileExists(out)
	s.NotContains(s.stdout.String(), "First")
}

func (s *CLITestSuite) TestMissingColumnWritesNothing() {
	header := testutil.WideHeader()
	drop := len(testutil.IDColumns) + 1 // Happy
	header = append(header[:drop:drop], header[drop+1:]...)
	row := testutil.WideRow(0)
	row = append(row[:drop:drop], row[drop+1:]...)
	in := s.CreateTempFile("no_happy.csv", testutil.WideCSV(s.T(), header, [][]string{row}))
	out := s.Path("no_happy_out.csv")

	code := s.run("run", "-i", in, "-o", out)
	s.Equal(errors.ExitMissingColumn, code)
	s.Contains(s.stderr.String(), `"Happy"`)
	s.NotContains(s.stderr.String(), "main.execute", "expected failures are logged without a stack trace")
	testutil.AssertNoFile(s.T(), out)
}

func (s *CLITestSuite) TestExitCodes() {
	out := s.Path("never.csv")
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing input", []string{"-i", s.Path("absent.csv"), "-o", out}, errors.ExitSourceNotFound},
		{"empty delimiter", []string{"-i", s.input, "-o", out, "--delimiter", ""}, errors.ExitConfig},
		{"unknown format", []string{"-i", s.input, "-o", out, "--format", "xlsx"}, errors.ExitConfig},
		{"unknown flag", []string{"--no-such-flag"}, errors.ExitConfig},
		{"compressed avro", []string{"-i", s.input, "-o", s.Path("x.avro"), "--compression", "gzip"}, errors.ExitConfig},
		{"overlapping columns", []string{"-i", s.input, "-o", out, "--id-columns", "Id,Happy"}, errors.ExitConfig},
		{"unsupported scheme", []string{"-i", s.input, "-o", "ftp://host/out.csv"}, errors.ExitConfig},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.stderr.Reset()
			s.Equal(tt.want, s.run(tt.args...), s.stderr.String())
			s.NotEmpty(s.stderr.String())
		})
	}
	testutil.AssertNoFile(s.T(), out)
}

func (s *CLITestSuite) TestDryRun() {
	out := s.Path("dry.csv")
	s.Require().Equal(errors.ExitOK, s.run("-i", s.input, "-o", out, "--dry-run"), s.stderr.String())
	s.Contains(s.stdout.String(), "dry run, nothing written")
	testutil.AssertNoFile(s.T(), out)
}

func (s *CLITestSuite) TestCompressedJSONLAndMetrics() {
	out := s.Path("long.jsonl.gz")
	metricsFile := s.Path("reshape.prom")

	code := s.run("-i", s.input, "-o", out, "--metrics-file", metricsFile)
	s.Require().Equal(errors.ExitOK, code, s.stderr.String())

	f, err := os.Open(out)
	s.Require().NoError(err)
	defer f.Close()
	rc, err := compression.NewReader(f, compression.Gzip)
	s.Require().NoError(err)
	defer rc.Close()

	lines := 0
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		lines++
	}
	s.Require().NoError(sc.Err())
	s.Equal(21, lines)
	s.Contains(s.stdout.String(), "jsonl, gzip")

	prom, err := os.ReadFile(metricsFile)
	s.Require().NoError(err)
	s.Contains(string(prom), "reshape_output_rows 21")
	s.Contains(string(prom), `reshape_runs_total{status="success"} 1`)
}

func (s *CLITestSuite) TestEnvironmentOverride() {
	s.T().Setenv("RESHAPE_RESHAPE_CATEGORY_COLUMNS", "Neutral,Happy")
	s.T().Setenv("RESHAPE_OUTPUT_MISSING", "NA")
	out := s.Path("env.csv")

	s.Require().Equal(errors.ExitOK, s.run("-i", s.input, "-o", out), s.stderr.String())

	records := testutil.ReadCSV(s.T(), out, ';')
	s.Len(records, 1+3*2)
	s.Equal("NA", records[1][len(records[1])-1])
}

func (s *CLITestSuite) TestColumnListsWithSpaces() {
	s.T().Setenv("RESHAPE_RESHAPE_ID_COLUMNS", "Id, Nome")
	out := s.Path("spaced.csv")

	code := s.run("-i", s.input, "-o", out, "--category-columns", "Neutral, Sad")
	s.Require().Equal(errors.ExitOK, code, s.stderr.String())

	records := testutil.ReadCSV(s.T(), out, ';')
	s.Require().Len(records, 1+3*2)
	s.Equal([]string{"Id", "Nome", "Emocao"}, records[0][:3])
	s.Equal("Neutral", records[1][2])
	s.Equal("Sad", records[4][2])
}

func (s *CLITestSuite) TestConfigFile() {
	out := s.Path("from_config.csv")
	cfgPath := s.CreateTempFile("reshape.yaml", []byte(`
input:
  path: `+s.input+`
output:
  path: `+out+`
  separator: "|"
reshape:
  category_columns: [Sad]
  category_column: Emotion
  position_prefix: V
`))

	s.Require().Equal(errors.ExitOK, s.run("--config", cfgPath), s.stderr.String())

	records := testutil.ReadCSV(s.T(), out, '|')
	s.Require().Len(records, 4)
	s.Equal("Emotion", records[0][8])
	s.True(strings.HasPrefix(records[0][9], "V"))
	s.Equal("Sad", records[1][8])
}

func (s *CLITestSuite) TestVersionAndFormats() {
	s.Require().Equal(errors.ExitOK, s.run("version"))
	s.Contains(s.stdout.String(), "reshape v"+version)

	s.stdout.Reset()
	s.Require().Equal(errors.ExitOK, s.run("formats"))
	for _, want := range []string{"csv", "jsonl", "avro", "parquet", "zstd", "lz4", "s3", "postgres"} {
		s.Contains(s.stdout.String(), want)
	}
}

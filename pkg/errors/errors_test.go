package errors

import (
	stderrors "errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesStack(t *testing.T) {
	err := New(ErrorTypeConfig, "bad delimiter")

	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0].Function, "TestNewCapturesStack")
	assert.Equal(t, "config: bad delimiter", err.Error())
}

func TestWrapPreservesCauseAndStack(t *testing.T) {
	inner := MissingColumn("Sad")
	outer := Wrap(inner, ErrorTypeTransform, "reshape failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.True(t, IsType(outer, ErrorTypeMissingColumn))
	assert.True(t, IsType(outer, ErrorTypeTransform))
	assert.False(t, IsType(outer, ErrorTypeSourceNotFound))

	col, ok := MissingColumnName(outer)
	require.True(t, ok)
	assert.Equal(t, "Sad", col)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeTransform, "nothing"))
}

func TestSourceNotFoundUnwrapsToOSError(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.csv")
	err := SourceNotFound("/definitely/not/here.csv", statErr)

	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	path, ok := err.Detail("path")
	require.True(t, ok)
	assert.Equal(t, "/definitely/not/here.csv", path)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", io.EOF, ExitUnexpected},
		{"transform", Unexpected(io.EOF, "split"), ExitUnexpected},
		{"write", New(ErrorTypeWrite, "rename"), ExitUnexpected},
		{"config", New(ErrorTypeConfig, "empty"), ExitConfig},
		{"source", SourceNotFound("x.csv", os.ErrNotExist), ExitSourceNotFound},
		{"missing column", MissingColumn("Id"), ExitMissingColumn},
		{"wrapped missing column", Wrap(MissingColumn("Id"), ErrorTypeTransform, "validate"), ExitMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

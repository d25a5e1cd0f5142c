package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/reshape/pkg/errors"
)

// Example demonstrates reporting a configured column the input lacks.
func Example() {
	err := errors.MissingColumn("Happy")

	fmt.Println(err.Error())

	// Output:
	// missing_column: expected column "Happy" not found in input
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeTransform, "failed to parse input row").
		WithDetail("line", 42)

	if errors.IsType(err, errors.ErrorTypeTransform) {
		fmt.Println("transform error")
	}
	fmt.Println(errors.ExitCode(err))

	// Output:
	// transform error
	// 1
}

// ExampleExitCode demonstrates the exit status of each failure class.
func ExampleExitCode() {
	fmt.Println(errors.ExitCode(nil))
	fmt.Println(errors.ExitCode(errors.SourceNotFound("resultado.csv", io.EOF)))
	fmt.Println(errors.ExitCode(errors.MissingColumn("Nome")))
	fmt.Println(errors.ExitCode(errors.New(errors.ErrorTypeConfig, "no category columns")))

	// Output:
	// 0
	// 3
	// 4
	// 2
}

package main

import (
	"fmt"
	"os"

	"github.com/oicr-gsi/pipeline-timings/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the pipeline-timings command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}

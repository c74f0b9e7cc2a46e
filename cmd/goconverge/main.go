// Command goconverge reports block-averaging error estimates and
// equilibration verdicts for simulation time series.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

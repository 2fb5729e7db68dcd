// Command session-service runs the reference session service.
//
// All settings can be given as flags or environment variables; the environment variables are the
// interface the contract test harness uses when it launches the service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

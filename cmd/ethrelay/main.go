// ethrelay is the command line client of the Ethereum header relay.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}

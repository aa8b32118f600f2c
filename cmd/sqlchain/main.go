// Command sqlchain renders and runs SQL transform chains.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlchain/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

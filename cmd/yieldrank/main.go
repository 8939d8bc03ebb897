// Command yieldrank normalizes dividend histories, computes volatility
// metrics and ranks income funds.
package main

import (
	"fmt"
	"os"

	"github.com/Skythrill256/yield-ranker-sub006/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

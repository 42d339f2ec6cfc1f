// Command ammsim runs the offline AMM simulator over a two-token pairwise
// pool (simulate) or a multi-token pool (simulate-multi) and reports the
// resulting transactions and economic metrics; spot-v3 is a separate Uniswap
// V3 reference utility. It is the CLI
// boundary described in spec §6 EXTERNAL INTERFACES, built the way the
// examples' CLI tools are: cobra for command/flag parsing, viper for
// layered config (flags override a config file), logrus for structured
// run output.
package main

import (
	"fmt"
	"os"

	"github.com/johnayoung/go-amm-sim/cmd/ammsim/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

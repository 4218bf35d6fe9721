// Command vizitka runs the Smart Vizitka Telegram bot and its tooling.
package main

import (
	"fmt"
	"os"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

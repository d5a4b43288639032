// Command specstore manages versioned PIM and PSM data specifications.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mff-uk/dataspecer-sub018/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

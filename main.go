package main

import (
	"context"
	"fmt"
	"os"

	"github.com/DeJeune/nsrun/cli"
	"github.com/DeJeune/nsrun/cmd"
	"github.com/DeJeune/nsrun/cmd/cmds"
)

func main() {
	ctx := context.Background()
	nsrunCli, err := cmd.NewNsrunCli()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmds.RunNsrun(ctx, nsrunCli); err != nil {
		if sterr, ok := err.(cli.StatusError); ok {
			if sterr.Status != "" {
				fmt.Fprintln(os.Stderr, sterr.Status)
			}

			if sterr.StatusCode == 0 {
				os.Exit(1)
			}
			os.Exit(sterr.StatusCode)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

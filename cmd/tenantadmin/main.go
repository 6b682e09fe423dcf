package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/tenantadmin/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.App{}
	rootCmd := cli.NewRootCommand(app)

	err := rootCmd.ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", cerr)
	}
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

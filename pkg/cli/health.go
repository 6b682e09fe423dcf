package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// ErrUnhealthy is returned by the health command when a required dependency is down
var ErrUnhealthy = errors.New("tenant API is unreachable")

func newHealthCommand(app *App) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the tenant API and the shared cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if timeout <= 0 {
				return usagef("--timeout must be positive, got %s", timeout)
			}
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			status := c.Health(ctx)

			if err := app.render(status, healthTable(status)); err != nil {
				return err
			}
			if status.Status == observability.StatusUnhealthy {
				return ErrUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Time allowed for all checks")
	return cmd
}

func healthTable(status observability.HealthStatus) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "STATUS\t%s\t%s\n", status.Status, status.Version)
		for _, name := range status.Names() {
			dep := status.Dependencies[name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, dep.Status, dep.Latency.Round(time.Millisecond), dep.Message)
		}
	}
}

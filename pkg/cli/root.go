package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tenantadmin/pkg/client"
	"github.com/platinummonkey/tenantadmin/pkg/config"
	"github.com/platinummonkey/tenantadmin/pkg/console"
	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// App carries what every command needs. The console is built on first use,
// so --help and argument errors never touch the network.
type App struct {
	Out io.Writer

	// Logger defaults to a stderr logger at the configured level
	Logger *observability.Logger

	// Build creates the console. It defaults to building one from config.
	Build func(ctx context.Context, app *App) (*console.Console, error)

	configPath string
	tenantID   string
	output     string

	console  *console.Console
	shutdown *observability.ShutdownManager
}

// NewRootCommand creates the root command
func NewRootCommand(app *App) *cobra.Command {
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.Build == nil {
		app.Build = buildFromConfig
	}

	root := &cobra.Command{
		Use:           "tenantadmin",
		Short:         "Administer the roles and permissions of a tenant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch app.output {
			case outputTable, outputJSON:
				return nil
			}
			return usagef("unknown output format %q (use table or json)", app.output)
		},
	}
	root.SetOut(app.Out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usage(err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "YAML config file (overrides TENANTADMIN_CONFIG)")
	flags.StringVar(&app.tenantID, "tenant", "", "Tenant ID (overrides TENANTADMIN_TENANT_ID)")
	flags.StringVarP(&app.output, "output", "o", outputTable, "Output format: table or json")

	root.AddCommand(newUsersCommand(app), newRolesCommand(app), newModulesCommand(app), newHealthCommand(app))
	wrapArgs(root)
	return root
}

// wrapArgs marks positional argument errors of cmd and its children as usage errors
func wrapArgs(cmd *cobra.Command) {
	if validate := cmd.Args; validate != nil {
		cmd.Args = func(c *cobra.Command, args []string) error {
			if err := validate(c, args); err != nil {
				return usage(err)
			}
			return nil
		}
	}
	for _, sub := range cmd.Commands() {
		wrapArgs(sub)
	}
}

// usageError marks input rejected locally, before any request is made
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func usage(err error) error {
	return usageError{err: err}
}

func usagef(format string, args ...any) error {
	return usage(fmt.Errorf(format, args...))
}

// Console returns the console, building it on the first call
func (a *App) Console(ctx context.Context) (*console.Console, error) {
	if a.console != nil {
		return a.console, nil
	}
	c, err := a.Build(ctx, a)
	if err != nil {
		return nil, err
	}
	a.console = c
	a.OnClose(c.Close)
	return c, nil
}

// OnClose registers cleanup run by Close
func (a *App) OnClose(fn observability.ShutdownFunc) {
	if a.shutdown == nil {
		a.shutdown = observability.NewShutdownManager(a.Logger, 5*time.Second)
	}
	a.shutdown.RegisterShutdownFunc(fn)
}

// Close runs the registered cleanup
func (a *App) Close() error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown.Shutdown()
}

func buildFromConfig(ctx context.Context, app *App) (*console.Console, error) {
	cfg, err := config.LoadFrom(app.configPath, func(cfg *config.Config) {
		if app.tenantID != "" {
			cfg.API.TenantID = app.tenantID
		}
	})
	if err != nil {
		return nil, err
	}

	if app.Logger == nil {
		app.Logger = observability.NewLogger(cfg.Observability.Level(), os.Stderr)
	}

	tracing, err := observability.StartTracing(ctx, cfg.Observability.OTel(), app.Logger)
	if err != nil {
		return nil, err
	}
	if tracing != nil {
		app.OnClose(tracing.Shutdown)
	}

	return console.New(ctx, cfg, app.Logger)
}

// ExitCode maps an error to the process exit status: 2 for rejected input,
// 3 for an unreachable or failing backend, 1 otherwise
func ExitCode(err error) int {
	if errors.Is(err, ErrUnhealthy) {
		return 3
	}
	var bad usageError
	if errors.As(err, &bad) {
		return 2
	}
	switch client.KindOf(err) {
	case client.KindValidation:
		return 2
	case client.KindNetwork, client.KindServer:
		return 3
	}
	return 1
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

func newModulesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect the permission catalog",
	}
	cmd.AddCommand(newModulesListCommand(app))
	return cmd
}

func newModulesListCommand(app *App) *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules and their permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.LoadModules(cmd.Context()); err != nil {
				return err
			}

			modules := c.Store().Modules().Value()
			if err := app.render(modules, moduleTable(modules)); err != nil {
				return err
			}
			if validate {
				return rbac.ValidateCatalog(modules)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "Fail when a permission is declared by more than one module")
	return cmd
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

var (
	errNoPermissions = errors.New("pass at least one --permission, or --clear to remove all")
	errPermsAndClear = errors.New("--permission and --clear cannot be combined")
	errNameRequired  = errors.New("--name is required")
)

func newRolesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List and edit roles",
	}
	cmd.AddCommand(
		newRolesListCommand(app),
		newRolesGetCommand(app),
		newRolesCreateCommand(app),
		newRolesUpdateCommand(app),
		newRolesPermissionsCommand(app),
		newRolesAvailableCommand(app),
		newRolesDeleteCommand(app),
	)
	return cmd
}

func newRolesListCommand(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roles, optionally filtered by name or description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.LoadRoles(cmd.Context()); err != nil {
				return err
			}

			store := c.Store()
			store.SetRoleSearchFilter(search)
			roles := store.FilteredRoles().Value()
			return app.render(roles, roleTable(roles))
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive name or description substring")
	return cmd
}

func newRolesGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <role-id>",
		Short: "Show a role and its permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			role, err := c.RoleDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(role, roleDetail(role))
		},
	}
}

func newRolesCreateCommand(app *App) *cobra.Command {
	var req rbac.RoleRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") {
				return usage(errNameRequired)
			}
			if err := req.Validate(); err != nil {
				return usage(err)
			}
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			role, err := c.CreateRole(cmd.Context(), req)
			if err != nil {
				return err
			}
			return app.done(role, "Created role %s (%s)", role.Name, role.ID)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Role name (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Role description")
	cmd.Flags().StringSliceVar(&req.Permissions, "permission", nil, "Permission ID to grant (repeatable)")
	return cmd
}

func newRolesUpdateCommand(app *App) *cobra.Command {
	var flags rbac.RoleRequest

	cmd := &cobra.Command{
		Use:   "update <role-id>",
		Short: "Update a role. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			current, err := c.RoleDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			req := rbac.RoleRequest{
				Name:        current.Name,
				Description: current.Description,
				Permissions: current.Permissions,
			}
			if cmd.Flags().Changed("name") {
				req.Name = flags.Name
			}
			if cmd.Flags().Changed("description") {
				req.Description = flags.Description
			}
			if cmd.Flags().Changed("permission") {
				req.Permissions = flags.Permissions
			}

			role, err := c.UpdateRole(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return app.done(role, "Updated role %s (%s)", role.Name, role.ID)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "New role name")
	cmd.Flags().StringVar(&flags.Description, "description", "", "New description")
	cmd.Flags().StringSliceVar(&flags.Permissions, "permission", nil, "Permission ID (repeatable, replaces the current set)")
	return cmd
}

func newRolesPermissionsCommand(app *App) *cobra.Command {
	var permissions []string
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "permissions <role-id>",
		Short: "Replace the permission set of a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(permissions) > 0 && clearAll:
				return usage(errPermsAndClear)
			case len(permissions) == 0 && !clearAll:
				return usage(errNoPermissions)
			}
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			ids := rbac.UniquePermissions(permissions)
			if err := c.UpdateRolePermissions(cmd.Context(), args[0], ids); err != nil {
				return err
			}
			return app.done(nil, "Role %s now grants %s", args[0], joinIDs(ids))
		},
	}
	cmd.Flags().StringSliceVar(&permissions, "permission", nil, "Permission ID to grant (repeatable)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every permission from the role")
	return cmd
}

func newRolesAvailableCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "available <role-id>",
		Short: "Show the permission catalog with the role's grants marked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			modules, err := c.AvailablePermissions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(modules, availableTable(modules))
		},
	}
}

func newRolesDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <role-id>",
		Short: "Delete a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteRole(cmd.Context(), args[0]); err != nil {
				return err
			}
			return app.done(nil, "Deleted role %s", args[0])
		},
	}
}

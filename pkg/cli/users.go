package cli

import (
	"github.com/spf13/cobra"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

func newUsersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users and manage their roles",
	}
	cmd.AddCommand(
		newUsersListCommand(app),
		newUsersRolesCommand(app),
		newUsersActivityCommand(app),
		newUsersAssignCommand(app),
		newUsersUnassignCommand(app),
		newUsersReplaceCommand(app),
	)
	return cmd
}

func newUsersListCommand(app *App) *cobra.Command {
	var search, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, optionally filtered by email and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := rbac.UserStatus(status)
			if filter != rbac.StatusAll && filter != rbac.StatusUnknown && !filter.Valid() {
				return usagef("invalid status %q (use active, inactive, pending, unknown or all)", status)
			}

			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.LoadUsers(cmd.Context()); err != nil {
				return err
			}

			store := c.Store()
			store.SetUserSearchFilter(search)
			store.SetUserStatusFilter(filter)
			users := store.FilteredUsers().Value()
			return app.render(users, userTable(users))
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive email substring")
	cmd.Flags().StringVar(&status, "status", string(rbac.StatusAll), "Status filter")
	return cmd
}

func newUsersRolesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "roles <user-id>",
		Short: "List the roles assigned to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			roles, err := c.UserRoles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(roles, roleTable(roles))
		},
	}
}

func newUsersActivityCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "activity <user-id>",
		Short: "Show a user's recent activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := c.Activity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.render(entries, activityTable(entries))
		},
	}
}

func newUsersAssignCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <user-id> <role-id>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.AssignRole(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return app.done(nil, "Assigned role %s to user %s", args[1], args[0])
		},
	}
}

func newUsersUnassignCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "unassign <user-id> <role-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a role from a user",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.RemoveRole(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return app.done(nil, "Removed role %s from user %s", args[1], args[0])
		},
	}
}

func newUsersReplaceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <user-id> <old-role-id> <new-role-id>",
		Short: "Replace one of a user's roles with another",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Console(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.ReplaceRole(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			return app.done(nil, "Replaced role %s with %s for user %s", args[1], args[2], args[0])
		},
	}
}

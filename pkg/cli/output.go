package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// render writes v as indented JSON, or calls table with a tab-aligned writer
func (a *App) render(v any, table func(w *tabwriter.Writer)) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	table(w)
	return w.Flush()
}

// done reports a completed write in table mode, or the written entity in JSON mode
func (a *App) done(v any, format string, args ...any) error {
	if a.output == outputJSON && v != nil {
		return a.render(v, nil)
	}
	_, err := fmt.Fprintf(a.Out, format+"\n", args...)
	return err
}

func userTable(users []rbac.User) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tEMAIL\tSTATUS\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Status, day(u.CreatedAt))
		}
	}
}

func roleTable(roles []rbac.Role) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tPERMISSIONS\tDESCRIPTION")
		for _, r := range roles {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Name, r.EffectivePermissionCount(), r.Description)
		}
	}
}

func roleDetail(role rbac.Role) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ID:\t%s\n", role.ID)
		fmt.Fprintf(w, "Name:\t%s\n", role.Name)
		fmt.Fprintf(w, "Description:\t%s\n", role.Description)
		fmt.Fprintf(w, "Permissions:\t%d\n", role.EffectivePermissionCount())
		for _, p := range role.Permissions {
			fmt.Fprintf(w, "\t%s\n", p)
		}
	}
}

func activityTable(entries []rbac.ActivityEntry) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "WHEN\tACTION\tACTOR")
		for _, e := range entries {
			when := "-"
			if !e.OccurredAt.IsZero() {
				when = e.OccurredAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", when, e.Action, e.Actor)
		}
	}
}

func moduleTable(modules []rbac.Module) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "MODULE\tPERMISSION\tTYPE\tNAME")
		for _, m := range modules {
			for _, p := range m.Permissions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, p.ID, p.Type, p.DisplayName)
			}
		}
	}
}

func availableTable(modules []rbac.AvailableModule) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "MODULE\tPERMISSION\tTYPE\tASSIGNED")
		for _, m := range modules {
			for _, p := range m.Permissions {
				assigned := "no"
				if p.Assigned {
					assigned = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, p.ID, p.Type, assigned)
			}
		}
	}
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

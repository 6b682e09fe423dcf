// Package state holds what an administration console is currently showing:
// the user, role and module collections, the selections and the filters.
//
// Every piece of state is a Subject. Subscribing yields the current value
// right away and then each distinct change; slow readers only see the latest
// value and never hold up a writer.
//
//	store := state.NewStore()
//	sub := store.FilteredRoles().SubscribeContext(ctx)
//	store.UpdateRoles(roles)
//	store.SetRoleSearchFilter("adm")
//	for roles := range sub.C() {
//		render(roles)
//	}
//
// Collections only emit when their content changes: users by id, email and
// status, roles by id, name and permission count, modules by id and
// permission ids. Re-fetching identical data is silent.
package state

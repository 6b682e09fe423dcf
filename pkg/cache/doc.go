// Package cache holds fetched entity collections so repeated reads do not hit
// the tenant API.
//
// A Slot caches one whole collection (users, roles, modules). A Keyed cache
// holds one value per key with LRU eviction and a TTL, for per-user role lists
// and per-role lookups. Both deduplicate concurrent fetches with singleflight
// and never cache a failure.
//
//	roles := cache.NewSlot("roles", api.ListRoles, cache.WithMetrics(m))
//	list, err := roles.Get(ctx) // network on first call only
//	roles.Invalidate()          // next Get fetches again
//
// Snapshots optionally shares slot contents through Redis between processes
// administering the same tenant, and a Refresher invalidates caches on cron
// schedules.
package cache

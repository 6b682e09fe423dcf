package cache

import "errors"

var (
	// ErrNoFetcher is returned by Get when a cache was built without a fetch function
	ErrNoFetcher = errors.New("cache: no fetcher configured")
)

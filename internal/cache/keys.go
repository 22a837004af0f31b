package cache

// Key builders for the two response families the browser caches. Asset-page
// keys include the full query string, so plain listings and searches never
// collide.

// SourcesKey is the cache key for the eligible source list.
func SourcesKey() string {
	return "sources"
}

// AssetPageKey is the cache key for one page of a source's asset listing.
func AssetPageKey(sourceID, query string) string {
	return "assets:" + sourceID + ":" + query
}

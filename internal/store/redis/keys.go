package redis

const (
	// KeyPrefixEnrich is the prefix for cached extraction results
	KeyPrefixEnrich = "bookmarkpack:enrich:"
)

// EnrichKey returns the Redis key for a cached extraction result
func EnrichKey(key string) string {
	return KeyPrefixEnrich + key
}

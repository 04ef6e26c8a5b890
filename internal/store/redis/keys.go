package redis

const (
	// KeyPrefixAlias is the prefix for cached alias resolutions
	KeyPrefixAlias = "yaelah:alias:"
	// KeyPrefixHistory is the prefix for per-client history lists
	KeyPrefixHistory = "yaelah:history:"
)

// AliasKey returns the Redis key caching the mapping of an alias
func AliasKey(alias string) string {
	return KeyPrefixAlias + alias
}

// HistoryKey returns the Redis key holding a client's history
func HistoryKey(clientID string) string {
	return KeyPrefixHistory + clientID
}

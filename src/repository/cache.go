package repository

// QuoteCache stores serialized premium quotes keyed by the request
// tuple. Implementations must be safe for concurrent use; a failing
// cache only costs a recomputation, never a failed quote.
type QuoteCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

package storage

// Store is the small persistence surface the front-ends depend on. Values are
// plain strings; a missing key is reported with found=false, not an error.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

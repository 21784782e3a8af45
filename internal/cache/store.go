package cache

import "context"

// Store is the physical storage behind the decorator. The decorator owns key
// derivation, value encoding, and counters; the store owns bytes and
// eviction. Get distinguishes a stored value from absence via the bool so an
// encoded empty value is still a hit.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put reports whether the key was newly created, so the caller can track
	// size without a read-modify-write.
	Put(ctx context.Context, key string, value []byte) (created bool, err error)

	// Remove reports whether an entry existed under the key.
	Remove(ctx context.Context, key string) (removed bool, err error)

	Flush(ctx context.Context) error

	Size(ctx context.Context) (int64, error)
}

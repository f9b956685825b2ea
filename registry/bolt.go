package registry

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltRegistry is a read-only Registry backed by a bbolt database file,
// populated out-of-band by the harvesting procedures that are out of
// scope for this engine. It never writes back.
type BoltRegistry struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBoltRegistry opens the bbolt file at path in read-only mode and
// binds lookups to the given bucket name.
func OpenBoltRegistry(path, bucket string) (*BoltRegistry, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:  1 * time.Second,
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	return &BoltRegistry{db: db, bucket: []byte(bucket)}, nil
}

// Get implements Registry. A missing bucket or key is reported as
// absent, never as an error.
func (r *BoltRegistry) Get(ctx context.Context, key string) (string, bool) {
	if err := ctx.Err(); err != nil {
		return "", false
	}

	var value string
	var found bool
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		value = string(v)
		found = true
		return nil
	})
	if err != nil {
		return "", false
	}
	return value, found
}

// Close implements Registry.
func (r *BoltRegistry) Close() error {
	return r.db.Close()
}

package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

// seedBolt writes a bbolt file at the given path with bucket populated
// from kv, mimicking the harvester's out-of-band writes.
func seedBolt(t *testing.T, path, bucket string, kv map[string]string) {
	t.Helper()
	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		for k, v := range kv {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBoltRegistryGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	seedBolt(t, path, "thresholds", map[string]string{
		"A::B::C::thresholds::range": "m1",
	})

	reg, err := OpenBoltRegistry(path, "thresholds")
	require.NoError(t, err)
	defer reg.Close()

	v, ok := reg.Get(context.Background(), "A::B::C::thresholds::range")
	assert.True(t, ok)
	assert.Equal(t, "m1", v)

	_, ok = reg.Get(context.Background(), "does::not::exist")
	assert.False(t, ok)
}

func TestBoltRegistryMissingBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	seedBolt(t, path, "other-bucket", map[string]string{"k": "v"})

	reg, err := OpenBoltRegistry(path, "thresholds")
	require.NoError(t, err)
	defer reg.Close()

	_, ok := reg.Get(context.Background(), "k")
	assert.False(t, ok, "missing bucket must report absent, not error")
}

func TestBoltRegistryCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	seedBolt(t, path, "thresholds", map[string]string{"k": "v"})

	reg, err := OpenBoltRegistry(path, "thresholds")
	require.NoError(t, err)
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := reg.Get(ctx, "k")
	assert.False(t, ok)
}

package rct

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/genivi/pclient/pkg/pcltypes"
)

// DumpTable reads every entry out of the RCT file at path, for
// provisioning tooling that needs to inspect a table without going through
// a Store's per-namespace cache.
func DumpTable(path string) (map[string]pcltypes.ResourceConfig, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, err
	}
	return t.entries, nil
}

// WriteTable writes entries to a fresh RCT file at path, overwriting any
// existing table. Used by provisioning tooling and by tests that need a
// concrete RCT fixture on disk.
func WriteTable(path string, entries map[string]pcltypes.ResourceConfig) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("create rct %s: %w", path, err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(rctBucket) != nil {
			if err := tx.DeleteBucket(rctBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(rctBucket)
		if err != nil {
			return err
		}
		for resourceID, cfg := range entries {
			data, err := json.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(resourceID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

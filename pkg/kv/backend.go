// Package kv is the KV access layer: an open-on-demand cache of backend
// handles keyed by (storage-class, ldbid, policy), each one an opaque
// ordered key/value store. Local storage-class backends are bbolt
// databases (one bucket per store); shared storage-class backends are
// Redis hashes, since a single-writer embedded B+tree cannot safely be
// opened by two independent OS processes at once and inter-process
// consistency for shared resources is left to the underlying engine.
package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
)

var dataBucket = []byte("data")

// Backend is the opaque ordered key/value store contract the resolver's
// six fixed templates each bind to one instance of.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, val []byte) error
	Size(ctx context.Context, key string) (int, bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	// List returns every key currently stored, for clear_all/dump tooling.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// boltBackend is a local storage-class backend: one bbolt database file
// holding one bucket, opened create-if-missing for user stores and
// read-only for default stores.
type boltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary unless readOnly) the bbolt database
// at path.
func OpenBolt(path string, readOnly bool) (Backend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	if !readOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(dataBucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init bucket %s: %w", path, err)
		}
	}
	return &boltBackend{db: db}, nil
}

func (b *boltBackend) Read(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(dataBucket)
		if bucket == nil {
			return nil
		}
		v := bucket.Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (b *boltBackend) Write(_ context.Context, key string, val []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(dataBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), val)
	})
}

func (b *boltBackend) Size(ctx context.Context, key string) (int, bool, error) {
	v, ok, err := b.Read(ctx, key)
	return len(v), ok, err
}

func (b *boltBackend) Delete(_ context.Context, key string) (bool, error) {
	existed := false
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(dataBucket)
		if bucket == nil {
			return nil
		}
		if bucket.Get([]byte(key)) != nil {
			existed = true
		}
		return bucket.Delete([]byte(key))
	})
	return existed, err
}

func (b *boltBackend) List(_ context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(dataBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *boltBackend) Close() error { return b.db.Close() }

// redisBackend is a shared storage-class backend: one Redis hash, keyed by
// the store's storage-path, with one field per internal key.
type redisBackend struct {
	client *redis.Client
	hashName string
}

// OpenRedis returns a Backend over a Redis hash named hashName on client.
func OpenRedis(client *redis.Client, hashName string) Backend {
	return &redisBackend{client: client, hashName: hashName}
}

func (b *redisBackend) Read(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.client.HGet(ctx, b.hashName, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis hget %s/%s: %w", b.hashName, key, err)
	}
	return v, true, nil
}

func (b *redisBackend) Write(ctx context.Context, key string, val []byte) error {
	if err := b.client.HSet(ctx, b.hashName, key, val).Err(); err != nil {
		return fmt.Errorf("redis hset %s/%s: %w", b.hashName, key, err)
	}
	return nil
}

func (b *redisBackend) Size(ctx context.Context, key string) (int, bool, error) {
	v, ok, err := b.Read(ctx, key)
	return len(v), ok, err
}

func (b *redisBackend) Delete(ctx context.Context, key string) (bool, error) {
	n, err := b.client.HDel(ctx, b.hashName, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis hdel %s/%s: %w", b.hashName, key, err)
	}
	return n > 0, nil
}

func (b *redisBackend) List(ctx context.Context) ([]string, error) {
	keys, err := b.client.HKeys(ctx, b.hashName).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hkeys %s: %w", b.hashName, err)
	}
	return keys, nil
}

func (b *redisBackend) Close() error { return nil }

package kvdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meghashyamc/apidoxsearch/logger"
	bolt "go.etcd.io/bbolt"
)

const assetBucketPrefix = "assets-"

// BoltDB is the asset cache. Entries live in one bucket per cache version;
// buckets of other versions are dropped when the store is opened.
type BoltDB struct {
	store  *bolt.DB
	bucket []byte
	logger logger.Logger
}

func New(logger logger.Logger, path string, version int) (*BoltDB, error) {
	if path == "" {
		return nil, fmt.Errorf("asset cache path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("failed to create asset cache directory", "err", err.Error(), "path", path)
		return nil, fmt.Errorf("failed to create asset cache directory: %w", err)
	}

	store, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		logger.Error("failed to open asset cache", "err", err.Error(), "path", path)
		return nil, fmt.Errorf("failed to open asset cache: %w", err)
	}

	boltDB := &BoltDB{
		store:  store,
		bucket: []byte(BucketName(version)),
		logger: logger,
	}

	if err := boltDB.activate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to activate asset cache: %w", err)
	}

	return boltDB, nil
}

func BucketName(version int) string {
	return fmt.Sprintf("%s%d", assetBucketPrefix, version)
}

// activate creates the current version's bucket and evicts all older ones.
func (b *BoltDB) activate() error {
	return b.store.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if strings.HasPrefix(string(name), assetBucketPrefix) && string(name) != string(b.bucket) {
				stale = append(stale, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				b.logger.Error("failed to evict stale asset bucket", "bucket", string(name), "err", err.Error())
				return fmt.Errorf("failed to evict bucket %s: %w", name, err)
			}
			b.logger.Info("evicted stale asset bucket", "bucket", string(name))
		}

		if _, err := tx.CreateBucketIfNotExists(b.bucket); err != nil {
			b.logger.Error("failed to create bucket", "err", err.Error())
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
}

func (b *BoltDB) Set(key string, value string) error {
	if key == "" {
		b.logger.Error("asset location cannot be empty", "key", key)
		return &InvalidKeyError{
			Key:    key,
			Reason: "asset location cannot be empty",
		}
	}

	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			b.logger.Error("asset bucket not found", "bucket", string(b.bucket))
			return &BucketError{Bucket: string(b.bucket)}
		}

		err := bucket.Put([]byte(key), []byte(value))
		if err != nil {
			b.logger.Error("failed to cache asset", "key", key, "err", err.Error())
			return fmt.Errorf("failed to cache asset %s: %w", key, err)
		}

		return nil
	})
}

func (b *BoltDB) Get(key string) (string, error) {
	if key == "" {
		b.logger.Error("asset location cannot be empty", "key", key)
		return "", &InvalidKeyError{
			Key:    key,
			Reason: "asset location cannot be empty",
		}
	}

	var value []byte
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			b.logger.Error("asset bucket not found", "bucket", string(b.bucket))
			return &BucketError{Bucket: string(b.bucket)}
		}

		v := bucket.Get([]byte(key))
		if v == nil {
			return &NotFoundError{Key: key}
		}

		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})

	if err != nil {
		var notFoundErr *NotFoundError
		if errors.As(err, &notFoundErr) {
			b.logger.Debug("asset cache miss", "key", key)
			return "", notFoundErr
		}
		return "", err
	}

	return string(value), nil
}

func (b *BoltDB) Delete(key string) error {
	if key == "" {
		b.logger.Error("asset location cannot be empty", "key", key)
		return &InvalidKeyError{
			Key:    key,
			Reason: "asset location cannot be empty",
		}
	}

	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			b.logger.Error("asset bucket not found", "bucket", string(b.bucket))
			return &BucketError{Bucket: string(b.bucket)}
		}

		err := bucket.Delete([]byte(key))
		if err != nil {
			b.logger.Error("failed to drop cached asset", "key", key, "err", err.Error())
			return fmt.Errorf("failed to drop cached asset %s: %w", key, err)
		}

		return nil
	})
}

func (b *BoltDB) Keys() ([]string, error) {
	var keys []string
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return &BucketError{Bucket: string(b.bucket)}
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		b.logger.Error("failed to list asset cache keys", "err", err.Error())
		return nil, err
	}

	return keys, nil
}

func (b *BoltDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

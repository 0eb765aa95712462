package kvdb

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("asset not cached")
	ErrInvalidKey    = errors.New("invalid asset location")
	ErrBucketMissing = errors.New("asset bucket missing")
)

// InvalidKeyError rejects an asset location that cannot be used as a cache key.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid asset location %q: %s", e.Key, e.Reason)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

// NotFoundError is a cache miss for Key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset %s is not cached", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BucketError means the bucket of the active cache version is gone, which
// happens when another process evicted it.
type BucketError struct {
	Bucket string
}

func (e *BucketError) Error() string {
	return fmt.Sprintf("asset bucket %s not found", e.Bucket)
}

func (e *BucketError) Is(target error) bool {
	return target == ErrBucketMissing
}

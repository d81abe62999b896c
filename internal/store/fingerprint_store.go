package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FingerprintIndex maps request content hashes to task identifiers so
// identical requests can reuse an existing task instead of re-running the
// generation engine.
type FingerprintIndex interface {
	// Lookup returns the task ID recorded for the given fingerprint.
	// Returns ErrNotFound for an unknown fingerprint and ErrUnavailable
	// when the store cannot be reached; callers treat both as a cache
	// miss on the submission path.
	Lookup(ctx context.Context, fingerprint string) (string, error)

	// Record maps the fingerprint to the task ID with the given TTL.
	Record(ctx context.Context, fingerprint string, taskID string, ttl time.Duration) error
}

// fingerprintKey builds the key family input:{fingerprint}:task_id.
func fingerprintKey(fingerprint string) string {
	return "input:" + fingerprint + ":task_id"
}

// RedisFingerprintIndex implements FingerprintIndex on Redis string keys
// with expiry.
type RedisFingerprintIndex struct {
	rdb *redis.Client
}

// NewRedisFingerprintIndex creates a RedisFingerprintIndex.
func NewRedisFingerprintIndex(rdb *redis.Client) *RedisFingerprintIndex {
	return &RedisFingerprintIndex{rdb: rdb}
}

// Lookup resolves a fingerprint to a previously recorded task ID.
func (i *RedisFingerprintIndex) Lookup(ctx context.Context, fingerprint string) (string, error) {
	taskID, err := i.rdb.Get(ctx, fingerprintKey(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: fingerprint %s", ErrNotFound, fingerprint)
		}
		return "", fmt.Errorf("%w: failed to look up fingerprint %s: %v", ErrUnavailable, fingerprint, err)
	}
	return taskID, nil
}

// Record stores the fingerprint -> task ID mapping with expiry.
func (i *RedisFingerprintIndex) Record(ctx context.Context, fingerprint string, taskID string, ttl time.Duration) error {
	if err := i.rdb.Set(ctx, fingerprintKey(fingerprint), taskID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to record fingerprint %s: %v", ErrUnavailable, fingerprint, err)
	}
	return nil
}

// Package store provides the small key-value cache behind the model
// catalog. A single-node deployment runs on the in-memory store; setting
// REDIS_DSN shares the cache across replicas.
package store

import (
	"errors"
	"time"

	"llamabridge/internal/config"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("key not found in store")

// Store is a byte-oriented cache with per-key TTLs.
type Store interface {
	// Get retrieves the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Exists reports whether key is present and unexpired.
	Exists(key string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// NewStore selects the store implementation from configuration.
func NewStore(cfg *config.Manager) (Store, error) {
	if cfg.RedisDSN != "" {
		logrus.Info("Using Redis store")
		return NewRedisStore(cfg.RedisDSN)
	}
	logrus.Info("Using in-memory store")
	return NewMemoryStore(), nil
}

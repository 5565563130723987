package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching reasoning-service responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a provider, model, and request
// payload, so a repeated (chunk, claims) evaluation or claim
// extraction is answered from cache instead of a new service call.
func Key(provider, model, payload string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + payload))
	return "alibi:v1:" + hex.EncodeToString(hash[:])
}

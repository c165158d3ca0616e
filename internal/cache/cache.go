// Package cache implements the content-addressed result cache for the
// rewrite pipeline: deterministic fingerprinting of a request's normalized
// fields plus get/set against an injected key-value store with TTL.
//
// The gateway never surfaces store failures to callers: a failing or
// unreachable store reads as a miss and writes report a boolean, so the
// rewrite path always proceeds uncached rather than erroring.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// keyPrefix namespaces fingerprints in shared stores.
const keyPrefix = "paraphrase:"

// Payload is the cached result of one rewrite request.
type Payload struct {
	ParaphrasedText string `json:"paraphrased_text"`
	Mode            string `json:"mode"`
	InputTokens     int    `json:"input_tokens"`
	OutputTokens    int    `json:"output_tokens"`
	TotalTokens     int    `json:"total_tokens"`
}

// Store is the key-value boundary the gateway writes through. Keys are opaque
// strings, values opaque blobs; availability is not guaranteed, and
// implementations must treat expired entries as absent.
type Store interface {
	// Get returns the unexpired value for key, or ok=false when absent,
	// expired, or the store is unreachable.
	Get(ctx context.Context, key string) (value []byte, ok bool)
	// Set stores value under key for ttl, reporting success. Concurrent
	// writes to the same key may land in any order; last write wins.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
}

// fingerprintFields is the canonical serialization the fingerprint hashes.
// Field names are emitted in sorted order so key order never affects the hash.
type fingerprintFields struct {
	MaxLength   int     `json:"max_length"`
	Mode        string  `json:"mode"`
	Temperature float64 `json:"temperature"`
	Text        string  `json:"text"`
}

// Fingerprint derives the stable cache key for a request: a SHA-256 over the
// canonical serialization of (text, mode, temperature, max length). Two
// requests with identical normalized fields always map to the same key, and
// changing any single field changes it.
func Fingerprint(text, mode string, temperature float64, maxLength int) string {
	data, _ := json.Marshal(fingerprintFields{
		MaxLength:   maxLength,
		Mode:        mode,
		Temperature: temperature,
		Text:        text,
	})
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Gateway wraps a Store with payload (de)serialization and a default TTL.
type Gateway struct {
	store Store
	ttl   time.Duration
}

// NewGateway returns a Gateway writing through store with the given default
// TTL. A nil store yields a gateway on which every lookup misses and every
// write reports failure.
func NewGateway(store Store, ttl time.Duration) *Gateway {
	return &Gateway{store: store, ttl: ttl}
}

// Get returns the cached payload for key, or ok=false on a miss, expiry,
// store failure, or undecodable payload.
func (g *Gateway) Get(ctx context.Context, key string) (Payload, bool) {
	if g.store == nil {
		return Payload{}, false
	}
	raw, ok := g.store.Get(ctx, key)
	if !ok {
		return Payload{}, false
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("cache payload undecodable, treating as miss")
		return Payload{}, false
	}
	return p, true
}

// Set writes a payload through to the store under key with the gateway TTL,
// reporting success. Failures are logged and otherwise ignored; the caller
// always proceeds.
func (g *Gateway) Set(ctx context.Context, key string, p Payload) bool {
	if g.store == nil {
		return false
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return false
	}
	if !g.store.Set(ctx, key, raw, g.ttl) {
		log.Warn().Str("key", key).Msg("cache write failed")
		return false
	}
	return true
}

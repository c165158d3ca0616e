package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

// --- Fingerprint ---

func TestFingerprint_DeterministicAndPrefixed(t *testing.T) {
	a := Fingerprint("Hello world.", "standard", 0.7, 512)
	b := Fingerprint("Hello world.", "standard", 0.7, 512)
	if a != b {
		t.Fatalf("identical requests produced different keys: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "paraphrase:") {
		t.Fatalf("key missing namespace prefix: %q", a)
	}
	// prefix + 64 hex chars of SHA-256
	if len(a) != len("paraphrase:")+64 {
		t.Fatalf("unexpected key length %d: %q", len(a), a)
	}
}

func TestFingerprint_SensitiveToEveryField(t *testing.T) {
	base := Fingerprint("Hello world.", "standard", 0.7, 512)
	variants := []string{
		Fingerprint("Hello world!", "standard", 0.7, 512),
		Fingerprint("Hello world.", "formal", 0.7, 512),
		Fingerprint("Hello world.", "standard", 0.9, 512),
		Fingerprint("Hello world.", "standard", 0.7, 256),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d collided with base key", i)
		}
	}
}

// --- MemoryStore ---

func TestMemoryStore_RoundTripAndExpiry(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	ctx := context.Background()
	if !s.Set(ctx, "k", []byte("v"), time.Hour) {
		t.Fatalf("Set failed")
	}
	if got, ok := s.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v; want v, true", got, ok)
	}

	// Advance past the TTL; the entry reads as absent and is dropped.
	s.now = func() time.Time { return base.Add(time.Hour + time.Second) }
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatalf("expired entry still readable")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry not deleted, Len=%d", s.Len())
	}
}

func TestMemoryStore_RejectsNonPositiveTTL(t *testing.T) {
	s := NewMemoryStore()
	if s.Set(context.Background(), "k", []byte("v"), 0) {
		t.Fatalf("Set with zero TTL should fail")
	}
	if s.Set(context.Background(), "k", []byte("v"), -time.Second) {
		t.Fatalf("Set with negative TTL should fail")
	}
}

func TestMemoryStore_SetPrunesExpired(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	ctx := context.Background()
	s.Set(ctx, "old", []byte("x"), time.Minute)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	s.Set(ctx, "new", []byte("y"), time.Minute)

	if s.Len() != 1 {
		t.Fatalf("expired entry not pruned on Set, Len=%d", s.Len())
	}
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	v := []byte("abc")
	s.Set(ctx, "k", v, time.Hour)
	v[0] = 'z'
	if got, _ := s.Get(ctx, "k"); string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}

// --- Gateway ---

func TestGateway_RoundTrip(t *testing.T) {
	g := NewGateway(NewMemoryStore(), time.Hour)
	ctx := context.Background()

	key := Fingerprint("Some text.", "casual", 0.7, 512)
	in := Payload{
		ParaphrasedText: "So basically, some text.",
		Mode:            "casual",
		InputTokens:     5,
		OutputTokens:    7,
		TotalTokens:     12,
	}
	if !g.Set(ctx, key, in) {
		t.Fatalf("Set failed")
	}
	out, ok := g.Get(ctx, key)
	if !ok {
		t.Fatalf("Get missed after Set")
	}
	if out != in {
		t.Fatalf("payload round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestGateway_MissOnUnknownKey(t *testing.T) {
	g := NewGateway(NewMemoryStore(), time.Hour)
	if _, ok := g.Get(context.Background(), "paraphrase:nope"); ok {
		t.Fatalf("unknown key should miss")
	}
}

func TestGateway_NilStore(t *testing.T) {
	g := NewGateway(nil, time.Hour)
	ctx := context.Background()
	if _, ok := g.Get(ctx, "k"); ok {
		t.Fatalf("nil store Get should miss")
	}
	if g.Set(ctx, "k", Payload{}) {
		t.Fatalf("nil store Set should fail")
	}
}

func TestGateway_UndecodablePayloadIsMiss(t *testing.T) {
	store := NewMemoryStore()
	store.Set(context.Background(), "k", []byte("{not json"), time.Hour)

	g := NewGateway(store, time.Hour)
	if _, ok := g.Get(context.Background(), "k"); ok {
		t.Fatalf("corrupt payload should read as miss")
	}
}

func TestGateway_TTLExpiryEndToEnd(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()
	store.now = func() time.Time { return base }

	g := NewGateway(store, time.Hour)
	ctx := context.Background()
	key := Fingerprint("ttl text", "standard", 0.7, 512)
	g.Set(ctx, key, Payload{ParaphrasedText: "out"})

	if _, ok := g.Get(ctx, key); !ok {
		t.Fatalf("fresh entry should hit")
	}
	store.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	if _, ok := g.Get(ctx, key); ok {
		t.Fatalf("entry past gateway TTL should miss")
	}
}

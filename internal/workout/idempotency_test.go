package workout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisIdempotency(t *testing.T) (*RedisIdempotency, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIdempotency(client, time.Minute), s
}

func TestRedisIdempotencyLifecycle(t *testing.T) {
	store, s := newRedisIdempotency(t)
	ctx := context.Background()

	stored, reserved, err := store.Reserve(ctx, "user-1", "k1")
	if err != nil || !reserved || stored != nil {
		t.Fatalf("first reserve: %v %v %s", err, reserved, stored)
	}
	if _, _, err := store.Reserve(ctx, "user-1", "k1"); !errors.Is(err, ErrIdempotencyInFlight) {
		t.Fatalf("expected in flight, got %v", err)
	}
	if ttl := s.TTL(idempotencyKey("user-1", "k1")); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	if err := store.Complete(ctx, "user-1", "k1", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	stored, reserved, err = store.Reserve(ctx, "user-1", "k1")
	if err != nil || reserved || string(stored) != `{"ok":true}` {
		t.Fatalf("replay: %v %v %s", err, reserved, stored)
	}

	// keys are scoped per owner
	if _, reserved, err := store.Reserve(ctx, "user-2", "k1"); err != nil || !reserved {
		t.Fatalf("other owner: %v %v", err, reserved)
	}

	if err := store.Release(ctx, "user-2", "k1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.Exists(idempotencyKey("user-2", "k1")) {
		t.Fatalf("expected key released")
	}
}

func TestRedisIdempotencyDefaultTTL(t *testing.T) {
	if NewRedisIdempotency(nil, 0).ttl != defaultKeyTTL {
		t.Fatalf("expected default ttl")
	}
}

func TestRedisIdempotencyRedisDown(t *testing.T) {
	store, s := newRedisIdempotency(t)
	s.Close()

	if _, _, err := store.Reserve(context.Background(), "user-1", "k1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOnceReplaysAndReleases(t *testing.T) {
	store, s := newRedisIdempotency(t)
	ctx := context.Background()
	calls := 0

	fn := func() (Pair, error) {
		calls++
		return Pair{StructuredID: "s-1", LegacyID: "l-1", XrefID: "x-1"}, nil
	}
	first, replayed, err := once(ctx, store, nil, "user-1", "k", fn)
	if err != nil || replayed {
		t.Fatalf("first: %v %v", err, replayed)
	}
	second, replayed, err := once(ctx, store, nil, "user-1", "k", fn)
	if err != nil || !replayed || second != first || calls != 1 {
		t.Fatalf("second: %v %v %+v calls=%d", err, replayed, second, calls)
	}

	_, _, err = once(ctx, store, nil, "user-1", "failing", func() (Pair, error) { return Pair{}, errBoom })
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected failure, got %v", err)
	}
	if s.Exists(idempotencyKey("user-1", "failing")) {
		t.Fatalf("failed call must release its key")
	}
}

func TestOnceWithoutKey(t *testing.T) {
	calls := 0
	fn := func() (int, error) { calls++; return calls, nil }

	for i := 0; i < 2; i++ {
		if _, replayed, err := once(context.Background(), nil, nil, "user-1", "k", fn); err != nil || replayed {
			t.Fatalf("unexpected replay without store")
		}
	}
	if calls != 2 {
		t.Fatalf("expected fn to run each time, got %d", calls)
	}
}

type failingCompleteStore struct {
	released []string
}

func (s *failingCompleteStore) Reserve(context.Context, string, string) ([]byte, bool, error) {
	return nil, true, nil
}

func (s *failingCompleteStore) Complete(context.Context, string, string, []byte) error {
	return errBoom
}

func (s *failingCompleteStore) Release(_ context.Context, _ string, key string) error {
	s.released = append(s.released, key)
	return nil
}

func TestOnceCommittedWriteSurvivesStoreFailure(t *testing.T) {
	store := &failingCompleteStore{}
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))

	want := Pair{StructuredID: "s-1", LegacyID: "l-1", XrefID: "x-1"}
	got, replayed, err := once(context.Background(), store, log, "user-1", "k", func() (Pair, error) { return want, nil })
	if err != nil || replayed {
		t.Fatalf("committed write must be reported as success, got %v %v", err, replayed)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if len(store.released) != 1 || store.released[0] != "k" {
		t.Fatalf("expected key released, got %v", store.released)
	}
	if !strings.Contains(logs.String(), "idempotent response not stored") {
		t.Fatalf("expected warning, got %s", logs.String())
	}
}

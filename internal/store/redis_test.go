package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TestRedisStore_Integration requires a running Redis on localhost and is
// skipped otherwise.
func TestRedisStore_Integration(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.DialTimeout = 500 * time.Millisecond

	s, err := NewRedisStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	defer s.Close()

	ctx := context.Background()
	key := "pacing-test:" + uuid.NewString()
	defer func() { _ = s.TrimByScore(ctx, key, MinScore, MaxScore) }()

	for i, v := range []string{"a", "b", "c"} {
		if err := s.Add(ctx, key, int64(100+i*10), []byte(v)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	entries, err := s.RangeByScore(ctx, key, 100, 110)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if got := values(entries); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("range = %v", got)
	}
	if entries[1].Score != 110 {
		t.Errorf("score = %d, want 110", entries[1].Score)
	}

	if err := s.TrimByScore(ctx, key, MinScore, 110); err != nil {
		t.Fatalf("trim: %v", err)
	}
	all, err := s.RangeAll(ctx, key)
	if err != nil {
		t.Fatalf("range all: %v", err)
	}
	if got := values(all); !equalStrings(got, []string{"c"}) {
		t.Errorf("after trim = %v", got)
	}
}

func TestFormatScore(t *testing.T) {
	tests := map[int64]string{
		MinScore:   "-inf",
		MaxScore:   "+inf",
		0:          "0",
		-5:         "-5",
		1760000000: "1760000000",
	}
	for in, want := range tests {
		if got := formatScore(in); got != want {
			t.Errorf("formatScore(%d) = %q, want %q", in, got, want)
		}
	}
}

package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func Test_bodyHash(t *testing.T) {
	sum := sha256.Sum256([]byte(`{"amount":100}`))
	if got := bodyHash([]byte(`{"amount":100}`)); got != hex.EncodeToString(sum[:]) {
		t.Fatalf("bodyHash = %s", got)
	}
	if bodyHash(nil) != bodyHash([]byte{}) {
		t.Fatal("nil and empty body must hash alike")
	}
}

func Test_buildKey(t *testing.T) {
	k := buildKey("POST", "/loans/:loan_id/fund", "lender-1", strings.Repeat("a", 32))
	want := "idemp:lending:post:/loans/:loan_id/fund:lender-1:" + strings.Repeat("a", 32)
	if k != want {
		t.Fatalf("buildKey = %q, want %q", k, want)
	}
	// the same request id from another user is a different key
	if buildKey("POST", "/loans/:loan_id/fund", "lender-2", strings.Repeat("a", 32)) == k {
		t.Fatal("keys must be scoped per user")
	}
}

func Test_validReqID(t *testing.T) {
	cases := map[string]bool{
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88":  true,
		strings.Repeat("a", 32):                 true,
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88":      true,
		" " + strings.Repeat("a", 32) + " ":     true,
		"":                                      false,
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA":      false,
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8":       false,
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880":     false,
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz":      false,
		"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88":  false,
		"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88":  false,
	}
	for in, want := range cases {
		if got := validReqID(in); got != want {
			t.Errorf("validReqID(%q) = %v, want %v", in, got, want)
		}
	}
}

func Test_parseAxRequestAt(t *testing.T) {
	now := time.Now().UTC()
	ok := []struct {
		raw  string
		want time.Time
	}{
		{strconv.FormatInt(now.Unix(), 10), time.Unix(now.Unix(), 0).UTC()},
		{strconv.FormatInt(now.UnixMilli(), 10), time.UnixMilli(now.UnixMilli()).UTC()},
		{"2025-09-05T10:00:00+07:00", time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)},
		{"2025-09-05T03:00:00.250Z", time.Date(2025, 9, 5, 3, 0, 0, 250e6, time.UTC)},
	}
	for _, tc := range ok {
		got, err := parseAxRequestAt(tc.raw)
		if err != nil || !got.Equal(tc.want) || got.Location() != time.UTC {
			t.Errorf("parseAxRequestAt(%q) = %v, %v; want %v", tc.raw, got, err, tc.want)
		}
	}
	for _, raw := range []string{"", "not-a-time", "2025-09-05T10:00:00", "1736123456abc"} {
		if _, err := parseAxRequestAt(raw); err == nil {
			t.Errorf("parseAxRequestAt(%q): expected error", raw)
		}
	}
}

func Test_entryStore(t *testing.T) {
	_, rdb := newMiniRedis(t)
	ctx := context.Background()
	key := buildKey("POST", "/wallets/me/deposits", "lender-1", strings.Repeat("b", 32))

	pending := idempEntry{InProgress: true, BodySHA256: bodyHash([]byte(`{"amount":5}`)), RequestID: strings.Repeat("b", 32)}
	if ok, err := provisionalSet(ctx, rdb, key, pending); err != nil || !ok {
		t.Fatalf("first provisionalSet: ok=%v err=%v", ok, err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl <= 0 || ttl > provisionalLockTTL {
		t.Fatalf("provisional ttl = %v", ttl)
	}
	if ok, err := provisionalSet(ctx, rdb, key, pending); err != nil || ok {
		t.Fatalf("second provisionalSet must lose: ok=%v err=%v", ok, err)
	}
	got, err := loadEntry(ctx, rdb, key)
	if err != nil || !got.InProgress || got.replayable() {
		t.Fatalf("pending entry: %+v err=%v", got, err)
	}

	final := idempEntry{Code: 201, Body: []byte(`{"balance":5}`), BodySHA256: pending.BodySHA256}
	if err := saveFinal(ctx, rdb, key, final, 5*time.Second); err != nil {
		t.Fatal(err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("final ttl = %v", ttl)
	}
	got, err = loadEntry(ctx, rdb, key)
	if err != nil || !got.replayable() || string(got.Body) != `{"balance":5}` {
		t.Fatalf("final entry: %+v err=%v", got, err)
	}

	if _, err := loadEntry(ctx, rdb, keyPrefix+"missing"); err == nil {
		t.Fatal("missing key must error")
	}
	rdb.Set(ctx, keyPrefix+"garbled", "{not json", time.Minute)
	if _, err := loadEntry(ctx, rdb, keyPrefix+"garbled"); err == nil {
		t.Fatal("garbled entry must error")
	}
}

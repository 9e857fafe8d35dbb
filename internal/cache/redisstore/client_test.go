package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestNew_RequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestNew_OptionsOverrideDefaults(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rc, err := New(context.Background(), mr.Addr(),
		WithPoolSize(8),
		WithMinIdleConns(1),
		WithDialTimeout(300*time.Millisecond),
		WithReadTimeout(200*time.Millisecond),
		WithWriteTimeout(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	o := rc.rdb.Options()
	if o.PoolSize != 8 || o.MinIdleConns != 1 {
		t.Fatalf("pool=%d idle=%d", o.PoolSize, o.MinIdleConns)
	}
	if o.DialTimeout != 300*time.Millisecond || o.ReadTimeout != 200*time.Millisecond || o.WriteTimeout != 100*time.Millisecond {
		t.Fatalf("timeouts dial=%v read=%v write=%v", o.DialTimeout, o.ReadTimeout, o.WriteTimeout)
	}
}

func TestSetGet_HappyPath(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.Set(ctx, "k1", []byte("v1"), 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := rc.Get(ctx, "k1")
	if err != nil || !found || string(got) != "v1" {
		t.Fatalf("Get: val=%q found=%v err=%v", got, found, err)
	}

	_, found, err = rc.Get(ctx, "missing")
	if err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}

	if err := rc.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	rc, mr := newMini(t)
	ctx := context.Background()

	if err := rc.Set(ctx, "ttl-key", []byte("v"), 2*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(3 * time.Second)

	if _, found, err := rc.Get(ctx, "ttl-key"); err != nil || found {
		t.Fatalf("expected expiry: found=%v err=%v", found, err)
	}
}

func TestContextDeadline_IsRespected(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.Set(ctx, "k", []byte("v"), time.Second); err == nil {
		t.Fatalf("expected error on Set with canceled context")
	}
	if _, _, err := rc.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error on Get with canceled context")
	}
}

func TestServerDown_SurfacesError(t *testing.T) {
	rc, mr := newMini(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, _, err := rc.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error with server down")
	}
}

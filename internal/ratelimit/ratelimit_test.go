package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keithlinneman/webctx/internal/httpmw"
	"github.com/keithlinneman/webctx/reqctx"
)

func wrap(l *IPLimiter) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httpmw.Chain(ok, httpmw.WithRequestContext(reqctx.Config{}), l.Middleware)
}

func doReq(h http.Handler, remoteAddr string) int {
	r := httptest.NewRequest("GET", "/x", nil)
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestAllowsWithinBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, WithRate(1, 3))
	h := wrap(l)

	for i := 0; i < 3; i++ {
		if code := doReq(h, "10.0.0.1:555"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, code)
		}
	}
}

func TestDeniesOverBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var firstDenied, denied atomic.Int64
	l := New(ctx,
		WithRate(0.001, 2),
		WithOnFirstDenied(func(string) { firstDenied.Add(1) }),
		WithOnDenied(func(string) { denied.Add(1) }),
	)
	h := wrap(l)

	doReq(h, "10.0.0.2:555")
	doReq(h, "10.0.0.2:555")

	for i := 0; i < 3; i++ {
		if code := doReq(h, "10.0.0.2:555"); code != http.StatusTooManyRequests {
			t.Fatalf("over-burst request %d: got %d, want 429", i, code)
		}
	}

	if got := firstDenied.Load(); got != 1 {
		t.Errorf("OnFirstDenied fired %d times, want 1", got)
	}
	if got := denied.Load(); got != 3 {
		t.Errorf("OnDenied fired %d times, want 3", got)
	}
}

func TestIndependentBucketsPerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, WithRate(0.001, 1))
	h := wrap(l)

	if code := doReq(h, "10.0.0.3:555"); code != http.StatusOK {
		t.Fatalf("first IP: got %d, want 200", code)
	}
	if code := doReq(h, "10.0.0.3:555"); code != http.StatusTooManyRequests {
		t.Fatalf("first IP second hit: got %d, want 429", code)
	}
	// different IP gets its own bucket
	if code := doReq(h, "10.0.0.4:555"); code != http.StatusOK {
		t.Fatalf("second IP: got %d, want 200", code)
	}
}

func TestProxyHeaderKeysBucket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, WithRate(0.001, 1))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := httpmw.Chain(ok, httpmw.WithRequestContext(reqctx.Config{Proxy: true}), l.Middleware)

	send := func(client string) int {
		r := httptest.NewRequest("GET", "/x", nil)
		r.RemoteAddr = "10.0.0.5:555" // same proxy for everyone
		r.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	if code := send("1.1.1.1"); code != http.StatusOK {
		t.Fatalf("client A: got %d, want 200", code)
	}
	if code := send("1.1.1.1"); code != http.StatusTooManyRequests {
		t.Fatalf("client A again: got %d, want 429", code)
	}
	if code := send("2.2.2.2"); code != http.StatusOK {
		t.Fatalf("client B through same proxy: got %d, want 200", code)
	}
}

func TestCleanupEvictsIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, WithRate(1, 1), WithTTL(20*time.Millisecond))
	h := wrap(l)
	doReq(h, "10.0.0.6:555")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		n := len(l.visitors)
		l.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("idle visitor never evicted")
}

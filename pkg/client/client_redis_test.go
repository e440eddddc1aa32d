package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips the test when
// none is running.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestDo_Handle304NotModified(t *testing.T) {
	redisClient := setupTestRedis(t)

	var calls, notModified atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte(`{"data":[{"id":1}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := c.Get(ctx, "/petitions.json?page=1")
		if err != nil {
			t.Fatalf("Get() #%d error = %v", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Get() #%d StatusCode = %d, want 200", i+1, resp.StatusCode)
		}
		if string(body) != `{"data":[{"id":1}]}` {
			t.Errorf("Get() #%d body = %s", i+1, body)
		}
	}

	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (a cached entry still goes to the network)", calls.Load())
	}
	if notModified.Load() != 1 {
		t.Errorf("304 answers = %d, want 1", notModified.Load())
	}
}

func TestDo_CacheKeyIncludesQuery(t *testing.T) {
	redisClient := setupTestRedis(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			t.Errorf("page %s sent a conditional request for another page's entry", r.URL.Query().Get("page"))
		}
		w.Header().Set("ETag", `"`+r.URL.Query().Get("page")+`"`)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, redisClient)
	for _, path := range []string{"/petitions.json?page=1", "/petitions.json?page=2"} {
		resp, err := c.Get(context.Background(), path)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", path, err)
		}
		resp.Body.Close()
	}
}

// Package cache provides a Redis-backed HTTP response cache for the petitions
// API client.
//
// The cache exists to make polling cheap: every cached response keeps its
// ETag and Last-Modified validators, so the next poll of the same page or
// petition is sent as a conditional request and a 304 Not Modified answer is
// served from Redis instead of transferring the document again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager, err := cache.NewManager(redisClient)
//
//	key := cache.NewKey(req.URL)
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Retention
//
// Entries are kept until the Expires header, or Cache-Control max-age, or
// DefaultTTL when neither is present. Retention only decides how long a
// validator is remembered: a cached entry never short-circuits a request.
//
// # Metrics
//
//   - petitions_cache_hits_total - Cache hits
//   - petitions_cache_misses_total - Cache misses
//   - petitions_cache_written_bytes_total - Bytes written to the cache
//   - petitions_304_responses_total - Conditional request successes
//   - petitions_conditional_requests_total - Conditional requests sent
//   - petitions_cache_errors_total{operation} - Cache operation errors
package cache

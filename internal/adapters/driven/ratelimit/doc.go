// Package ratelimit provides per-client request limiters for the HTTP and chat
// front ends.
//
// The Redis limiter shares its counters between server instances using a
// fixed window per client key. The memory limiter keeps a token bucket per
// key inside the process and is used when Redis is not configured or cannot
// be reached at startup.
package ratelimit

// Package apikeys resolves API keys to client identities.
//
// A Validator consults an in-memory Cache first and falls back to a
// CredentialStore on a miss. Successful lookups are cached for the lifetime
// of the process; failed lookups are never cached, so a key provisioned
// after a miss becomes valid on the next request. There is no expiry or
// invalidation hook: a revoked key keeps working until restart or until it
// is evicted from the bounded cache.
//
// Concurrent misses for the same key share a single store lookup.
package apikeys

// Package cache provides a thread-safe, TTL-bounded in-memory cache used by
// consumers that need to memoize small, address-like lookups (DNS
// resolution, short-lived result coalescing) without reaching for an
// external cache service.
//
// # Core Components
//
//   - [Cache]: Interface for Get/Set/Delete with byte-slice values
//   - [MemoryCache]: Thread-safe in-memory implementation with TTL support
//   - [Policy]: Configures default and maximum TTLs
//
// # Quick Start
//
//	policy := cache.DefaultPolicy() // 5min default, 1hr max
//	c := cache.NewMemoryCache(policy)
//
//	_ = c.Set(ctx, "example.com", []byte("93.184.216.34"), policy.EffectiveTTL(0)) // DefaultTTL
//	if addr, ok := c.Get(ctx, "example.com"); ok {
//		// use addr
//	}
//
// # TTL Policies
//
// The [Policy] type computes TTLs through [Policy.EffectiveTTL]; MemoryCache
// itself does not apply its policy, and Set with ttl <= 0 stores nothing:
//
//   - DefaultTTL: returned by EffectiveTTL for an override <= 0
//   - MaxTTL: upper bound EffectiveTTL clamps any TTL to
//
// Preset policies:
//
//   - [DefaultPolicy]: 5 minute default, 1 hour max
//   - [NoCachePolicy]: disabled (ShouldCache reports false)
//
// # Thread Safety
//
// All exported types are safe for concurrent use:
//
//   - [MemoryCache]: sync.RWMutex protects all operations
//   - [Policy]: immutable struct, concurrent-safe
//
// # Error Handling
//
// Sentinel errors (use errors.Is for checking):
//
//   - [ErrNilCache]: cache is nil
//   - [ErrInvalidKey]: key is empty, whitespace-only, or contains newlines
//   - [ErrKeyTooLong]: key exceeds MaxKeyLength (512 characters)
//
// Note: Cache.Get never returns errors - it returns (nil, false) on miss.
// Key validation is performed via [ValidateKey].
package cache

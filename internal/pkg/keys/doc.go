// Package keys provides API key and identifier generation for Angela.
//
// This package generates:
//   - API key pairs (public and secret halves)
//   - UUID v4 identifiers
//
// # API Keys
//
// API keys use prefixes for easy identification:
//   - ak-* : Public keys (client-safe, stored as-is for lookup)
//   - as-* : Secret keys (shown once at creation, stored as a SHA-256 digest)
//
// Verification hashes the presented secret and compares digests in
// constant time:
//
//	if !keys.VerifySecret(presented, stored.SecretHash) {
//	    return errors.New("invalid API key")
//	}
//
// # Performance
//
// Key generation uses sync.Pool to minimize allocations in hot paths.
// All functions are safe for concurrent use.
package keys

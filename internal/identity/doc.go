// Package identity stores the pending user identity (an email address) that
// must survive the round trip to an external OAuth provider.
//
// A single value is kept under the key "user_email". Set always overwrites;
// nothing in the connection lifecycle clears it. Reading before any Set
// reports the value as absent rather than failing.
//
// Backends:
//   - memory: in-process only, for tests and throwaway runs
//   - file: JSON document in the user cache directory (default)
//   - sqlite: single key/value table via modernc.org/sqlite
//   - valkey: a Valkey/Redis key with no expiry
package identity

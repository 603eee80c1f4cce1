// Package credentials stores per-user Spotify OAuth credentials and cached profiles.
//
// # Store Interface
//
// [Store] is the single capability the authentication backend depends on. Two implementations are selected at construction time by [Open]:
//   - [MemoryStore] : a map guarded by a [sync.RWMutex], lost on restart
//   - [SQLiteStore] : an embedded SQLite file keyed by user id, surviving restarts
//
// # Outcomes
//
// Lookups distinguish three failures, all wrapping sentinels from the shared package:
//   - [shared.ErrCredentialNotFound] : nothing stored for the user
//   - [shared.ErrCacheCorrupt] : a stored payload could not be opened or decoded
//   - [shared.ErrCacheUnavailable] : the backing itself failed (I/O, driver)
//
// A corrupt payload is never reported as "not found".
//
// # Encoding
//
// [SQLiteStore] payloads are CBOR with fixed integer keys, optionally sealed with XChaCha20-Poly1305
// using the user id as associated data, so a row copied under another key fails to open.
//
// Writes for the same user are last-write-wins.
package credentials

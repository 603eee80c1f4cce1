// Package models defines the domain entities shared by the credential store, the Spotify client and the
// authentication backend.
//
// There are two kinds of types:
//
// 1. Records: values that are persisted or cached
//   - [Credential] : OAuth token material for one Spotify user
//   - [Profile] : the cached subset of the Spotify /me response
//
// 2. Capabilities: interfaces implemented by the Spotify service and by test doubles
//   - [Provider] : code exchange, token refresh, profile fetch and client rehydration
//   - [API] : a live client bound to one credential
//
// Records carry fixed CBOR integer keys. Renumbering a key breaks every stored payload, so new fields take new numbers.
package models

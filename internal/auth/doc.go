// Package auth implements the Spotify login state machine and session resolution.
//
// # Login
//
// [Backend.BeginLogin] issues a [StateToken] (32 random bytes, base64url) and records it in a ledger of
// outstanding states. The caller binds the value to the client, normally as the login_state cookie.
//
// [Backend.HandleCallback] checks the echoed state against the client's copy and the ledger before it
// touches the network:
//   - [shared.ErrStateMissing] : the client has no copy
//   - [shared.ErrStateMismatch] : the copies differ, or this server never issued the state
//   - [shared.ErrStateConsumed] : a callback for this state already ran
//   - [shared.ErrStateExpired] : the state's TTL elapsed, including while the exchange was in flight
//
// Consuming a state is atomic, so only one callback per state can succeed. A transient exchange failure
// (see [IsTransient]) releases the state for a retry within its TTL. Every other failure leaves it consumed.
//
// # Sessions
//
// [Backend.ResolveSession] turns a user id into a [Principal] carrying a live client. A missing credential is
// the anonymous outcome, not an error. Expired access tokens are refreshed on use; concurrent refreshes for
// the same user collapse into one provider call. A refresh the provider rejects removes the credential.
package auth

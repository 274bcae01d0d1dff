// Package auth implements the OAuth2 authorization code flow against the Spotify accounts service.
//
// # Flow
//
// [Flow.BeginLogin] issues a state nonce and the authorization URL. The nonce is stored by the caller (a cookie) and echoed back by the authorization server.
//
// [Flow.HandleCallback] accepts a callback only when the echoed state equals the stored one exactly, then exchanges the code for a [models.TokenPair] with a single form POST using HTTP Basic client credentials.
//
// [Flow.Refresh] trades a refresh token for a new access token. It has no effect on any [Attempt].
//
// # Attempts
//
// An [Attempt] moves through [Idle] → [AwaitingCallback] → [Authorized], or ends in [Rejected]. Its nonce is consumed by the first callback that matches it, so a second callback on the same attempt is a state mismatch and never reaches the token endpoint.
//
// # Diagnostics
//
// After a successful exchange the user's profile is fetched on a detached goroutine and logged. Its failure is logged and otherwise ignored.
package auth

// Package credentials persists the Twitch user access token and refresh token that
// ttvinfo uses to call the Helix API on behalf of the broadcaster.
//
// The record is a single JSON document on disk, e.g.:
//
//	{"token": "Bearer abc123", "refresh": "xyz789"}
//
// It's loaded once at startup and rewritten in full on every update. The CSRF state
// used by the OAuth flow is deliberately not stored here: see package csrf.
package credentials

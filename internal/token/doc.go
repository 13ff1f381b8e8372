// Package token manages the Twitch user access token that ttvinfo uses to query the
// Helix API on behalf of the broadcaster.
//
// The broadcaster first connects their account via an authorization code grant flow
// (see package userauth), which results in an access token and a refresh token:
//
// - https://dev.twitch.tv/docs/authentication/getting-tokens-oauth/#authorization-code-grant-flow
//
// Before each use, the stored access token is checked against the validation endpoint.
// If it's no longer valid, we exchange the refresh token for a new pair of tokens:
//
// - https://dev.twitch.tv/docs/authentication/refresh-tokens/
//
// If Twitch rejects the refresh token, it's discarded, and the broadcaster must go
// through the authorization flow again before we can make any further requests.
package token

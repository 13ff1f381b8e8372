// Package userauth implements the Authorization code grant flow that connects the
// broadcaster's Twitch account to ttvinfo:
//
// - https://dev.twitch.tv/docs/authentication/getting-tokens-oauth/#authorization-code-grant-flow
//
// The broadcaster visits GET /ttv/auth/start, which redirects them to id.twitch.tv.
// Once they've granted access, Twitch sends them back to GET /ttv/auth with an
// authorization code, which we exchange for a user access token and refresh token.
// Those tokens are persisted (see package credentials) and used to query the Helix API
// on the broadcaster's behalf.
//
// The redirect carries a CSRF nonce in its 'state' parameter, and we refuse to
// exchange any authorization code that doesn't come back with the same nonce.
package userauth

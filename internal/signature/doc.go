// Package signature authenticates inbound webhook requests. The sender signs the raw
// request body with HMAC-SHA1, keyed by a secret that we share with it, and sends the
// hex-encoded digest in the SHA1-Signature header.
package signature

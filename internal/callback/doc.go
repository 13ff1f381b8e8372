// Package callback implements the HTTP endpoint that receives signed webhook events.
// Each request must carry an HMAC-SHA1 digest of its raw body in the SHA1-Signature
// header (see package signature); verified events are forwarded to an AMQP exchange so
// that other services can react to them.
package callback

package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
)

// Header is the request header that carries the hex-encoded HMAC-SHA1 digest
const Header = "SHA1-Signature"

var ErrSignatureMismatch = errors.New("bad request signature")

// MismatchError describes a failed verification, carrying the digest we computed and
// the signature that was provided so the failure can be diagnosed
type MismatchError struct {
	Computed string
	Provided string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: computed %s, got '%s'", ErrSignatureMismatch, e.Computed, e.Provided)
}

func (e *MismatchError) Unwrap() error {
	return ErrSignatureMismatch
}

// ComputeSignature returns the hex-encoded HMAC-SHA1 digest of body, keyed by secret
func ComputeSignature(body []byte, secret string) string {
	return hex.EncodeToString(digest(body, secret))
}

// Verify checks that providedSignatureHex is the HMAC-SHA1 digest of body, keyed by
// secret. body must be the raw bytes of the request as received. A signature that is
// not valid hex or is not the length of a SHA1 digest never verifies. Returns a
// *MismatchError on failure.
func Verify(body []byte, providedSignatureHex string, secret string) error {
	computed := digest(body, secret)
	provided, err := hex.DecodeString(providedSignatureHex)
	if err != nil {
		provided = nil
	}
	// hmac.Equal compares in constant time; a length mismatch fails without
	// examining content
	if !hmac.Equal(computed, provided) {
		return &MismatchError{
			Computed: hex.EncodeToString(computed),
			Provided: providedSignatureHex,
		}
	}
	return nil
}

func digest(body []byte, secret string) []byte {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

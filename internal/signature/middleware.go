package signature

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/golden-vcr/server-common/entry"
	"github.com/gorilla/mux"
)

// MaxBodySize is the largest request body that will be read for verification
const MaxBodySize = 1 << 20

// ObserveFunc is notified of the outcome of every signature check
type ObserveFunc func(ok bool)

// Middleware rejects any request whose body does not match the signature in its
// SHA1-Signature header, responding with 401 before the wrapped handler runs. Bodies
// larger than MaxBodySize are rejected with 413. The
// body of an accepted request is restored so that the next handler can read it.
func Middleware(secret string, observe ObserveFunc) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			logger := entry.Log(req)

			body, err := io.ReadAll(http.MaxBytesReader(res, req.Body, MaxBodySize))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					logger.Error("Request body exceeds size limit", "limit", tooLarge.Limit)
					http.Error(res, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				logger.Error("Failed to read request body", "error", err)
				http.Error(res, "failed to read request body", http.StatusInternalServerError)
				return
			}
			req.Body.Close()

			if err := Verify(body, req.Header.Get(Header), secret); err != nil {
				var mismatch *MismatchError
				if errors.As(err, &mismatch) {
					logger.Error("Failed to verify request signature",
						"hash", mismatch.Computed,
						"signature", mismatch.Provided,
					)
				}
				if observe != nil {
					observe(false)
				}
				http.Error(res, "Bad request signature", http.StatusUnauthorized)
				return
			}
			if observe != nil {
				observe(true)
			}

			req.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(res, req)
		})
	}
}

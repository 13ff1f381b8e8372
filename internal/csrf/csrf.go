// Package csrf generates and checks the nonce carried in the 'state' parameter of our
// OAuth authorization redirect. Only one nonce is live at a time: generating a new one
// replaces the old one.
package csrf

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long a nonce remains valid after it's generated
const DefaultTTL = 15 * time.Minute

const nonceSize = 20

// State holds the current nonce. It's kept in memory only: a restart simply requires
// the user to start the authorization flow again.
type State struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

// NewState returns an empty State whose nonces expire after ttl
func NewState(clock clockwork.Clock, ttl time.Duration) *State {
	return &State{
		clock: clock,
		ttl:   ttl,
	}
}

// Generate creates a new random nonce, replacing any prior one, and returns it
func (s *State) Generate() string {
	b := make([]byte, nonceSize)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	value := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.expiresAt = s.clock.Now().Add(s.ttl)
	return value
}

// Check reports whether candidate is the current, unexpired nonce. Checking does not
// consume the nonce; call Invalidate once the flow it protects has completed.
func (s *State) Check(candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.value == "" {
		return false
	}
	if !s.clock.Now().Before(s.expiresAt) {
		return false
	}
	return candidate == s.value
}

// Invalidate discards the current nonce
func (s *State) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
	s.expiresAt = time.Time{}
}

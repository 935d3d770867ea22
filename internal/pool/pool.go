// Package pool implements the presence registry (C7, spec §4.7): a set of
// opaque tokens indicating players available for matching. It is
// deliberately decoupled from the matchmaker — clients poll it only to
// render an "N players online" indicator.
package pool

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/neo/turingwire/internal/logging"
)

// Registry is a thread-safe set of presence tokens, guarded by a single
// mutex per spec §4.7 ("thread-safe (single mutex)").
type Registry struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{tokens: make(map[string]struct{})}
}

// Count returns the number of present tokens.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// Join adds token to the pool, generating a random opaque one if empty.
// Joining twice with the same token is idempotent and never double-counts
// (R2).
func (r *Registry) Join(token string) string {
	created := token == ""
	if created {
		token = randomToken()
	}
	r.mu.Lock()
	r.tokens[token] = struct{}{}
	count := len(r.tokens)
	r.mu.Unlock()

	logging.LogPoolEvent("join", token, map[string]interface{}{"created": created, "count": count})
	return token
}

// Leave removes token from the pool. Removing an absent token is a no-op.
func (r *Registry) Leave(token string) {
	r.mu.Lock()
	_, existed := r.tokens[token]
	delete(r.tokens, token)
	count := len(r.tokens)
	r.mu.Unlock()

	if existed {
		logging.LogPoolEvent("leave", token, map[string]interface{}{"count": count})
	}
}

// Has reports whether token is currently present.
func (r *Registry) Has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[token]
	return ok
}

func randomToken() string {
	buf := make([]byte, 8) // 64-bit token per spec §4.7
	if _, err := rand.Read(buf); err != nil {
		panic("pool: failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

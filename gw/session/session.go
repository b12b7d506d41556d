package session

import (
	"time"

	"github.com/bertrandmartel/authgateway/gw/identity"
	uuid "github.com/satori/go.uuid"
)

// Session is the server-side record that survives the provider redirect
// round trip. The ID doubles as the OAuth state value, the nonce binds the
// provider ID token to this attempt. Protected endpoints never rely on it,
// authorization is always the issued credential.
type Session struct {
	ID        string             `json:"id"`
	Nonce     string             `json:"nonce"`
	Identity  *identity.Identity `json:"identity,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// New creates a session with a fresh identifier and nonce and a fixed
// absolute lifetime.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewV4().String(),
		Nonce:     uuid.NewV4().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store holds in-flight handshake sessions keyed by session identifier.
// Implementations must isolate keys from each other under concurrent access.
type Store interface {
	Set(s *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
}

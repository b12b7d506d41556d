package identity

import "errors"

// ErrMissingSubject is returned when the provider assertion carries no
// subject identifier. A conformant provider always sends one.
var ErrMissingSubject = errors.New("profile has no subject identifier")

type Email struct {
	Value string `json:"value"`
}

type Photo struct {
	Value string `json:"value"`
}

// RawProfile is the identity assertion obtained from the provider after a
// successful handshake. It lives only for the duration of one callback and
// is never persisted.
type RawProfile struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	Emails       []Email `json:"emails"`
	Photos       []Photo `json:"photos"`
	AccessToken  string  `json:"-"`
	RefreshToken string  `json:"-"`
}

// Identity is the provider-independent user identity. ID is always set,
// every other field is empty when the provider did not supply it.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Normalize maps a provider profile to an Identity. Swapping the identity
// provider only requires a new mapping here, the rest of the gateway never
// sees the provider shape.
func Normalize(raw *RawProfile) (*Identity, error) {
	if raw == nil {
		return nil, errors.New("profile is nil")
	}
	if raw.ID == "" {
		return nil, ErrMissingSubject
	}
	user := &Identity{
		ID:   raw.ID,
		Name: raw.DisplayName,
	}
	if len(raw.Emails) > 0 {
		user.Email = raw.Emails[0].Value
	}
	if len(raw.Photos) > 0 {
		user.Picture = raw.Photos[0].Value
	}
	return user, nil
}

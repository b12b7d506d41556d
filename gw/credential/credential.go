package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/bertrandmartel/authgateway/gw/identity"
	"github.com/dgrijalva/jwt-go"
)

const (
	VerifyErrorMalformed    = "CREDENTIAL_MALFORMED"
	VerifyErrorBadSignature = "CREDENTIAL_BAD_SIGNATURE"
	VerifyErrorExpired      = "CREDENTIAL_EXPIRED"
)

type VerifyError struct {
	ErrorType string
	Err       error
}

// Claims is the payload of an issued credential. Picture is deliberately
// not embedded, the credential carries only what protected endpoints need.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.StandardClaims
}

// Codec issues and verifies the application credential. Verification is pure
// computation over the token string and the secret, no shared state, so a
// single Codec is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (codec *Codec) TTL() time.Duration {
	return codec.ttl
}

// Issue signs a credential for the given identity, valid from now for the
// configured ttl.
func (codec *Codec) Issue(user *identity.Identity) (string, error) {
	if user == nil {
		return "", errors.New("identity is nil")
	}
	if user.ID == "" {
		return "", errors.New("identity has no id")
	}
	now := time.Now()
	claims := &Claims{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(codec.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(codec.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
// The caller either gets a fully verified identity or a VerifyError, never
// a partially trusted one.
func (codec *Codec) Verify(tokenString string) (*identity.Identity, *VerifyError) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return codec.secret, nil
	})
	if err != nil {
		return nil, verifyError(err)
	}
	if !token.Valid {
		return nil, &VerifyError{
			ErrorType: VerifyErrorMalformed,
			Err:       errors.New("credential is not valid"),
		}
	}
	if claims.ID == "" {
		return nil, &VerifyError{
			ErrorType: VerifyErrorMalformed,
			Err:       errors.New("credential has no subject"),
		}
	}
	return &identity.Identity{
		ID:    claims.ID,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

func verifyError(err error) *VerifyError {
	if vErr, ok := err.(*jwt.ValidationError); ok {
		if vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return &VerifyError{
				ErrorType: VerifyErrorExpired,
				Err:       err,
			}
		}
		if vErr.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
			return &VerifyError{
				ErrorType: VerifyErrorBadSignature,
				Err:       err,
			}
		}
	}
	return &VerifyError{
		ErrorType: VerifyErrorMalformed,
		Err:       err,
	}
}

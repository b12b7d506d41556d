package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bertrandmartel/authgateway/gw/config"
	"github.com/bertrandmartel/authgateway/gw/identity"
	"github.com/bertrandmartel/authgateway/gw/session"
	"github.com/lestrrat-go/jwx/jwk"
	"golang.org/x/oauth2"
)

const (
	AuthErrorProviderDenied     = "PROVIDER_DENIED"
	AuthErrorStateMismatch      = "STATE_MISMATCH"
	AuthErrorTokenExchange      = "TOKEN_EXCHANGE_FAILED"
	AuthErrorAssertionFetch     = "ASSERTION_FETCH_FAILED"
	AuthErrorIDTokenInvalid     = "ID_TOKEN_INVALID"
	AuthErrorMalformedAssertion = "MALFORMED_ASSERTION"
)

// AuthError is the single failure outcome of a handshake operation. Exactly
// one of identity or AuthError comes back from HandleCallback, never both.
type AuthError struct {
	ErrorType string
	Err       error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%v : %v", e.ErrorType, e.Err)
}

// Callback carries the query parameters the provider appends to the
// redirect URI.
type Callback struct {
	State            string `query:"state" validate:"required"`
	Code             string `query:"code"`
	Error            string `query:"error"`
	ErrorDescription string `query:"error_description"`
}

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleJwksURL     = "https://www.googleapis.com/oauth2/v3/certs"
	googleIssuer      = "https://accounts.google.com"

	//upper bound on the provider round trip, a slow provider resolves to
	//a login failure instead of a hung callback
	exchangeTimeout = 10 * time.Second
)

// Coordinator owns the redirect/callback exchange with Google. It is built
// once at startup and injected where needed, there is no ambient provider
// registry.
type Coordinator struct {
	OAuth       *oauth2.Config
	HTTPClient  *http.Client
	UserInfoURL string
	JwksURL     string
	Issuer      string

	mu     sync.Mutex
	jwkSet *jwk.Set
}

// NewCoordinator builds a Google coordinator from the gateway configuration.
// Additional scopes may be requested on top of openid, profile and email.
func NewCoordinator(cfg *config.Config, scopes ...string) *Coordinator {
	return &Coordinator{
		OAuth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.CallbackURL,
			Endpoint:     googleEndpoint,
			Scopes:       append([]string{"openid", "profile", "email"}, scopes...),
		},
		HTTPClient: &http.Client{
			Timeout: exchangeTimeout,
		},
		UserInfoURL: googleUserInfoURL,
		JwksURL:     googleJwksURL,
		Issuer:      googleIssuer,
	}
}

// BeginLogin returns the provider authorization URL for the given session.
// The session id is the anti-forgery state, the nonce binds the eventual
// ID token to this attempt.
func (coord *Coordinator) BeginLogin(s *session.Session) string {
	return coord.OAuth.AuthCodeURL(
		s.ID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("nonce", s.Nonce),
	)
}

// HandleCallback validates the provider response, exchanges the
// authorization code and returns the normalized identity. Every failure,
// including a provider timeout, resolves to an AuthError, nothing is thrown
// past this boundary and no credential material leaves it.
func (coord *Coordinator) HandleCallback(ctx context.Context, request *Callback, s *session.Session) (*identity.Identity, *AuthError) {
	if request == nil {
		return nil, &AuthError{
			ErrorType: AuthErrorStateMismatch,
			Err:       errors.New("request is nil"),
		}
	}
	if request.Error != "" {
		return nil, &AuthError{
			ErrorType: AuthErrorProviderDenied,
			Err:       fmt.Errorf("%v : %v", request.Error, request.ErrorDescription),
		}
	}
	if s == nil {
		return nil, &AuthError{
			ErrorType: AuthErrorStateMismatch,
			Err:       errors.New("no session for this login attempt"),
		}
	}
	if request.State == "" || request.State != s.ID {
		return nil, &AuthError{
			ErrorType: AuthErrorStateMismatch,
			Err:       errors.New("state does not match session"),
		}
	}
	if request.Code == "" {
		return nil, &AuthError{
			ErrorType: AuthErrorTokenExchange,
			Err:       errors.New("callback has no authorization code"),
		}
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	exchangeCtx = context.WithValue(exchangeCtx, oauth2.HTTPClient, coord.HTTPClient)

	token, err := coord.OAuth.Exchange(exchangeCtx, request.Code)
	if err != nil {
		return nil, &AuthError{
			ErrorType: AuthErrorTokenExchange,
			Err:       err,
		}
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		if err := coord.verifyIDToken(rawIDToken, s.Nonce); err != nil {
			return nil, &AuthError{
				ErrorType: AuthErrorIDTokenInvalid,
				Err:       err,
			}
		}
	}

	profile, err := coord.fetchProfile(token.AccessToken)
	if err != nil {
		return nil, &AuthError{
			ErrorType: AuthErrorAssertionFetch,
			Err:       err,
		}
	}
	profile.AccessToken = token.AccessToken
	profile.RefreshToken = token.RefreshToken

	user, err := identity.Normalize(profile)
	if err != nil {
		return nil, &AuthError{
			ErrorType: AuthErrorMalformedAssertion,
			Err:       err,
		}
	}
	return user, nil
}

type userInfoResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (coord *Coordinator) fetchProfile(accessToken string) (*identity.RawProfile, error) {
	if coord.HTTPClient == nil {
		return nil, errors.New("no http client specified")
	}
	req, err := http.NewRequest("GET", coord.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %v", accessToken))

	r, err := coord.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()
	if r.StatusCode != 200 {
		return nil, errors.New("received incorrect status : " + strconv.Itoa(r.StatusCode))
	}
	target := new(userInfoResponse)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return nil, err
	}
	profile := &identity.RawProfile{
		ID:          target.ID,
		DisplayName: target.Name,
	}
	if target.Email != "" {
		profile.Emails = []identity.Email{{Value: target.Email}}
	}
	if target.Picture != "" {
		profile.Photos = []identity.Photo{{Value: target.Picture}}
	}
	return profile, nil
}

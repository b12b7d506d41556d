package handshake

import (
	"errors"
	"fmt"

	"github.com/dgrijalva/jwt-go"
	"github.com/lestrrat-go/jwx/jwk"
)

//the provider reports its issuer with or without the scheme
func issuerMatches(iss string, expected string) bool {
	return iss == expected || "https://"+iss == expected
}

func (coord *Coordinator) keySet() (*jwk.Set, error) {
	coord.mu.Lock()
	defer coord.mu.Unlock()
	if coord.jwkSet != nil {
		return coord.jwkSet, nil
	}
	if coord.JwksURL == "" {
		return nil, errors.New("jwks endpoint is missing")
	}
	set, err := jwk.FetchHTTP(coord.JwksURL)
	if err != nil {
		return nil, err
	}
	coord.jwkSet = set
	return set, nil
}

// verifyIDToken checks the signature of the provider ID token against the
// provider JWKS and validates issuer, audience and nonce. The profile fetch
// already authenticates the user, this catches a tampered token response.
func (coord *Coordinator) verifyIDToken(rawIDToken string, nonce string) error {
	token, err := jwt.Parse(rawIDToken, func(token *jwt.Token) (interface{}, error) {
		set, err := coord.keySet()
		if err != nil {
			return nil, err
		}
		keyID, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("expecting JWT header to have string kid")
		}
		if key := set.LookupKeyID(keyID); len(key) == 1 {
			return key[0].Materialize()
		}
		return nil, fmt.Errorf("unable to find key %q", keyID)
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("id_token claims have unexpected shape")
	}
	iss, _ := claims["iss"].(string)
	if !issuerMatches(iss, coord.Issuer) {
		return fmt.Errorf("error validating issuer %v", iss)
	}
	if aud, ok := claims["aud"].(string); ok {
		if aud != coord.OAuth.ClientID {
			return fmt.Errorf("error validating audience %v", aud)
		}
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return errors.New("sub field is missing")
	}
	if nonce != "" {
		tokenNonce, _ := claims["nonce"].(string)
		if tokenNonce == "" {
			return errors.New("nonce field is missing")
		}
		if tokenNonce != nonce {
			return fmt.Errorf("error validating nonce %v", tokenNonce)
		}
	}
	return nil
}

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

const CookieName = "AGSESSION"

// EncodeValue signs the session id with the session secret. Clients hold
// only the signed value and cannot substitute another session identifier.
func EncodeValue(id string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// DecodeValue validates the signature and returns the session id. Any
// tampered or truncated value is rejected.
func DecodeValue(value string, secret string) (string, error) {
	i := strings.LastIndex(value, ".")
	if i <= 0 {
		return "", errors.New("cookie value has no signature")
	}
	id := value[:i]
	if !hmac.Equal([]byte(value), []byte(EncodeValue(id, secret))) {
		return "", errors.New("cookie signature mismatch")
	}
	return id, nil
}

// SetCookie issues the session cookie. httpOnly keeps it away from page
// scripts, sameSite lax still lets the provider redirect carry it back.
func SetCookie(w http.ResponseWriter, s *Session, secret string, secure bool) {
	cookie := new(http.Cookie)
	cookie.Name = CookieName
	cookie.Value = EncodeValue(s.ID, secret)
	cookie.Path = "/"
	cookie.Expires = s.ExpiresAt
	cookie.HttpOnly = true
	cookie.Secure = secure
	cookie.SameSite = http.SameSiteLaxMode
	http.SetCookie(w, cookie)
}

func ClearCookie(w http.ResponseWriter, secure bool) {
	cookie := new(http.Cookie)
	cookie.Name = CookieName
	cookie.Value = ""
	cookie.Path = "/"
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	cookie.HttpOnly = true
	cookie.Secure = secure
	cookie.SameSite = http.SameSiteLaxMode
	http.SetCookie(w, cookie)
}

// ReadCookie extracts and validates the session id carried by the request.
func ReadCookie(r *http.Request, secret string) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return DecodeValue(cookie.Value, secret)
}

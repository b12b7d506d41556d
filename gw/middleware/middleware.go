package middleware

import (
	"github.com/bertrandmartel/authgateway/gw/session"
	"github.com/labstack/echo/v4"
)

// ContextKey is where the loaded session is stored on the echo context.
const ContextKey = "session"

type SessionMiddleware struct {
	Store  session.Store
	Secret string
}

// Load attaches the handshake session referenced by the request cookie to
// the echo context. A missing, forged or expired cookie simply yields no
// session, the handler decides what that means for its operation.
func (m *SessionMiddleware) Load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := session.ReadCookie(c.Request(), m.Secret)
		if err == nil {
			s, err := m.Store.Get(id)
			if err == nil && s != nil {
				c.Set(ContextKey, s)
			}
		}
		return next(c)
	}
}

// FromContext returns the session loaded by Load, or nil.
func FromContext(c echo.Context) *session.Session {
	s, _ := c.Get(ContextKey).(*session.Session)
	return s
}

package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/bertrandmartel/authgateway/gw/config"
	"github.com/bertrandmartel/authgateway/gw/credential"
	"github.com/bertrandmartel/authgateway/gw/handshake"
	"github.com/bertrandmartel/authgateway/gw/middleware"
	"github.com/bertrandmartel/authgateway/gw/session"
	"github.com/labstack/echo/v4"
)

const (
	loginFailedPath = "/auth/login-failed"
	bearerPrefix    = "Bearer "
)

// Handler composes the handshake coordinator, the credential codec and the
// session store behind the externally visible auth operations. All
// collaborators are injected, the handler owns no global state.
type Handler struct {
	Config      *config.Config
	Coordinator *handshake.Coordinator
	Codec       *credential.Codec
	Store       session.Store
}

func NewHandler(cfg *config.Config, coordinator *handshake.Coordinator, codec *credential.Codec, store session.Store) *Handler {
	return &Handler{
		Config:      cfg,
		Coordinator: coordinator,
		Codec:       codec,
		Store:       store,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	loadSession := &middleware.SessionMiddleware{
		Store:  h.Store,
		Secret: h.Config.SessionSecret,
	}
	e.GET("/auth/google", h.Login)
	e.GET("/auth/google/callback", h.Callback, loadSession.Load)
	e.GET("/auth/me", h.Me)
	e.GET("/auth/logout", h.Logout, loadSession.Load)
	e.GET(loginFailedPath, h.LoginFailed)
}

// Login starts a fresh handshake. Every attempt gets its own session, a
// stale session from an earlier attempt is simply left to expire.
func (h *Handler) Login(c echo.Context) error {
	s := session.New(h.Config.SessionTTL)
	if err := h.Store.Set(s); err != nil {
		return h.failLogin(c, &handshake.AuthError{
			ErrorType: handshake.AuthErrorStateMismatch,
			Err:       err,
		})
	}
	session.SetCookie(c.Response(), s, h.Config.SessionSecret, h.Config.IsProduction())
	return c.Redirect(http.StatusFound, h.Coordinator.BeginLogin(s))
}

// Callback is the provider redirect target. Success hands the credential to
// the frontend through a one-time redirect query parameter, every failure
// resolves to the login-failed endpoint.
func (h *Handler) Callback(c echo.Context) error {
	request := new(handshake.Callback)
	if err := c.Bind(request); err != nil {
		return h.failLogin(c, &handshake.AuthError{
			ErrorType: handshake.AuthErrorStateMismatch,
			Err:       err,
		})
	}
	if err := c.Validate(request); err != nil {
		return h.failLogin(c, &handshake.AuthError{
			ErrorType: handshake.AuthErrorStateMismatch,
			Err:       err,
		})
	}
	s := middleware.FromContext(c)
	if s == nil {
		//the provider redirect may arrive without the session cookie,
		//the state value doubles as the session identifier
		stored, err := h.Store.Get(request.State)
		if err == nil {
			s = stored
		}
	}
	user, authErr := h.Coordinator.HandleCallback(c.Request().Context(), request, s)
	if authErr != nil {
		return h.failLogin(c, authErr)
	}

	s.Identity = user
	if err := h.Store.Set(s); err != nil {
		//the credential is the authorization mechanism, a session write
		//failure only loses the session-side copy of the identity
		c.Logger().Errorf("failed to update handshake session : %v", err)
	}

	token, err := h.Codec.Issue(user)
	if err != nil {
		return h.failLogin(c, &handshake.AuthError{
			ErrorType: handshake.AuthErrorMalformedAssertion,
			Err:       err,
		})
	}
	session.SetCookie(c.Response(), s, h.Config.SessionSecret, h.Config.IsProduction())
	return c.Redirect(http.StatusFound, h.Config.FrontendURL()+"?token="+url.QueryEscape(token))
}

// Me returns the identity carried by the presented credential. A missing
// header and a failed verification produce the same response, the caller
// learns nothing about which check rejected it.
func (h *Handler) Me(c echo.Context) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return h.unauthorized(c, "NO_CREDENTIAL", errors.New("no bearer credential presented"))
	}
	user, verifyErr := h.Codec.Verify(strings.TrimPrefix(header, bearerPrefix))
	if verifyErr != nil {
		return h.unauthorized(c, verifyErr.ErrorType, verifyErr.Err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Logout removes the handshake session. Credentials already issued stay
// valid until they expire, the codec has no revocation, so logout only
// severs the session linkage.
func (h *Handler) Logout(c echo.Context) error {
	s := middleware.FromContext(c)
	if s != nil {
		if err := h.Store.Delete(s.ID); err != nil {
			c.Logger().Errorf("logout failed : %v %v : %v", c.Request().Method, c.Request().URL.Path, err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Logout failed",
			})
		}
	}
	session.ClearCookie(c.Response(), h.Config.IsProduction())
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

func (h *Handler) LoginFailed(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "Authentication failed",
	})
}

func (h *Handler) failLogin(c echo.Context, authErr *handshake.AuthError) error {
	if h.Config.IsProduction() {
		c.Logger().Errorf("login failed : %v %v %v", authErr.ErrorType, c.Request().Method, c.Request().URL.Path)
	} else {
		c.Logger().Errorf("login failed : %v %v %v : %v", authErr.ErrorType, c.Request().Method, c.Request().URL.Path, authErr.Err)
	}
	return c.Redirect(http.StatusFound, loginFailedPath)
}

func (h *Handler) unauthorized(c echo.Context, errorType string, err error) error {
	if h.Config.IsProduction() {
		c.Logger().Errorf("credential rejected : %v %v %v", errorType, c.Request().Method, c.Request().URL.Path)
	} else {
		c.Logger().Errorf("credential rejected : %v %v %v : %v", errorType, c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "Invalid token",
	})
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the cookie that carries the identity provider's access
// token for browser requests.
const SessionCookie = "session"

var errNoToken = errors.New("missing session token")

// bearerOrCookie returns the raw token from the Authorization header,
// falling back to the session cookie.
func bearerOrCookie(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// ParseSession verifies an HS256 token and returns its subject, which is
// the profile user id.
func ParseSession(secret, raw string) (string, error) {
	if raw == "" {
		return "", errNoToken
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("invalid claims")
	}
	return sub, nil
}

// SessionUserID returns the user id of the request's session, if any.
func SessionUserID(c echo.Context, secret string) (string, bool) {
	sub, err := ParseSession(secret, bearerOrCookie(c))
	return sub, err == nil
}

// JWTAuth rejects requests without a valid session with 401 and stores the
// token subject under "user_id" for handlers and the rate limiter.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, err := ParseSession(secret, bearerOrCookie(c))
			if errors.Is(err, errNoToken) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			c.Set(ctxUserID, sub)
			return next(c)
		}
	}
}

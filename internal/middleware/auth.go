package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	SessionHeader = "X-Session-Id"
	RoleAdmin     = "admin"
	RoleCustomer  = "customer"

	principalKey = "principal"
)

type Claims struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId,omitempty"`
	jwt.RegisteredClaims
}

// Principal is whoever is calling: a signed-in user, a guest session, or nobody.
type Principal struct {
	UserID    string
	SessionID string
	Role      string
}

func (p Principal) Owner() model.Owner {
	return model.Owner{UserID: p.UserID, SessionID: p.SessionID}
}

func (p Principal) Actor() model.Actor {
	return model.Actor{Owner: p.Owner(), Admin: p.IsAdmin()}
}

func (p Principal) IsAdmin() bool {
	return p.UserID != "" && p.Role == RoleAdmin
}

// IssueToken signs an HS256 access token; used by tooling and tests.
func IssueToken(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, raw string) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("token auth is not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Authenticate resolves the caller from a bearer token and/or the guest
// session header. Anonymous requests pass through; a bad token does not.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := Principal{
				SessionID: strings.TrimSpace(c.Request().Header.Get(SessionHeader)),
			}

			if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
				raw, ok := strings.CutPrefix(auth, "Bearer ")
				if !ok {
					return apperr.Unauthorized(apperr.CodeInvalidToken, "invalid authorization header")
				}
				claims, err := parseToken(secret, strings.TrimSpace(raw))
				if err != nil {
					return apperr.Unauthorized(apperr.CodeInvalidToken, "invalid or expired token")
				}
				principal.UserID = claims.UserID
				principal.Role = claims.Role
				if principal.SessionID == "" {
					principal.SessionID = claims.SessionID
				}
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func PrincipalFrom(c echo.Context) Principal {
	p, _ := c.Get(principalKey).(Principal)
	return p
}

// SetSession records a freshly minted guest session on the request.
func SetSession(c echo.Context, sessionID string) {
	p := PrincipalFrom(c)
	p.SessionID = sessionID
	c.Set(principalKey, p)
	c.Response().Header().Set(SessionHeader, sessionID)
}

// RequireOwner accepts a signed-in user or a guest session.
func RequireOwner() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if PrincipalFrom(c).Owner().Empty() {
				return apperr.Unauthorized(apperr.CodeUnauthenticated, "authentication required")
			}
			return next(c)
		}
	}
}

func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if PrincipalFrom(c).UserID == "" {
				return apperr.Unauthorized(apperr.CodeUnauthenticated, "login required")
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p.UserID == "" {
				return apperr.Unauthorized(apperr.CodeUnauthenticated, "login required")
			}
			if !p.IsAdmin() {
				return apperr.Forbidden("admin role required")
			}
			return next(c)
		}
	}
}

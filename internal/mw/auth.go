package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// identityKey is where the parsed identity lands in the gin context.
const identityKey = "mw.identity"

// Identity is what the authentication collaborator yields: who the caller is
// and what role they carry. Token issuance lives outside this service.
type Identity struct {
	Subject string
	Role    string
}

// Claims is the JWT payload the collaborator signs.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth parses the bearer token and stores the caller identity in the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromRequest(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuth stores the identity when a valid token is present but lets
// anonymous callers through. Handlers that only elevate behavior for
// privileged callers sit behind this one.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := identityFromRequest(c, secret); ok {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

// RequireRole gates a route on the authenticated caller's role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok || identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Auth, if any.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

func identityFromRequest(c *gin.Context, secret string) (Identity, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return Identity{}, false
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}

	return Identity{Subject: claims.Subject, Role: claims.Role}, true
}

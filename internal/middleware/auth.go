package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medilens/medilens-api/pkg/auth"
	"github.com/medilens/medilens-api/pkg/httputil"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the JWT token and sets the user in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.AbortWithError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !m.identify(c, authHeader) {
			return
		}
		c.Next()
	}
}

// Optional identifies the caller when a token is sent and lets anonymous
// requests through. A malformed or invalid token is still rejected.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !m.identify(c, authHeader) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) identify(c *gin.Context, authHeader string) bool {
	if m.tokens == nil {
		httputil.AbortWithError(c, http.StatusUnauthorized, "authentication is not configured")
		return false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		httputil.AbortWithError(c, http.StatusUnauthorized, "invalid authorization format")
		return false
	}

	claims, err := m.tokens.Verify(parts[1])
	if err != nil {
		httputil.AbortWithError(c, http.StatusUnauthorized, "invalid token")
		return false
	}

	c.Set(httputil.ContextUserID, claims.UserID())
	c.Set(httputil.ContextUserEmail, claims.Email)
	return true
}

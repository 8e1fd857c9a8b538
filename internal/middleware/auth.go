package middleware

import (
	"net/http"
	"strings"

	"stockdesk/internal/auth"
	"stockdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// tokenFromRequest reads the access_token cookie first, then the Bearer header.
func tokenFromRequest(c *gin.Context) (string, string) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireAuth validates the JWT and stores the caller's principal on the context.
// Role checks happen in the services so every entry point enforces them the same way.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		principal, err := auth.ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		c.Set(principalKey, principal)
		c.Set("userID", principal.ID.String())
		c.Set("userRole", string(principal.Role))

		c.Next()
	}
}

// PrincipalFrom returns the principal set by RequireAuth, or nil.
func PrincipalFrom(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

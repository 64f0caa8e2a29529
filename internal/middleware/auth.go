package middleware

import (
	"net/http"
	"strings"

	pkgAuth "blackjack-service/pkg/auth"
	"blackjack-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey  = "userID"
	ContextAdminIDKey = "adminID"
)

// AuthRequired gates player endpoints on a user-scoped bearer token.
func AuthRequired() gin.HandlerFunc {
	return requireToken(pkgAuth.ParseUserToken, ContextUserIDKey)
}

// AdminAuthRequired gates console endpoints on an admin-scoped bearer
// token. User tokens are rejected here even when they are otherwise valid.
func AdminAuthRequired() gin.HandlerFunc {
	return requireToken(pkgAuth.ParseAdminToken, ContextAdminIDKey)
}

func requireToken(parse func(string) (*pkgAuth.Claims, error), contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := parse(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(contextKey, claims.UID)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package mw

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jp310194/wwfc-webapp/internal/auth"
)

const principalKey = "principal"

// RequireUser rejects requests without a valid bearer token and stores
// the resolved principal on the request context.
func RequireUser(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		principal, err := gate.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin additionally enforces the admin role.
func RequireAdmin(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		principal, err := gate.RequireAdmin(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(authStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// Principal returns the principal stored by RequireUser or RequireAdmin.
func Principal(c *gin.Context) *auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrRoleLookup):
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/pkg/auth"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

const (
	CookieToken   = "token"
	CookieRole    = "role"
	ContextClaims = "claims"
	ContextUserID = "user_id"
	bearerPrefix  = "Bearer "
)

// TokenFromRequest prefers the Authorization header and falls back to the session cookie.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if cookie, err := c.Cookie(CookieToken); err == nil {
		return cookie
	}
	return ""
}

// Authenticate verifies the session token and stores the claims in the context.
func Authenticate(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("authentication required"))
			return
		}

		claims, ok := tokens.Verify(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.NewErrorResponse("authentication required"))
			return
		}
		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, httputil.NewErrorResponse("forbidden"))
	}
}

// Guard protects role-scoped pages, redirecting instead of answering with JSON.
func Guard(tokens *auth.TokenService, policy auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claims *auth.Claims
		if token, err := c.Cookie(CookieToken); err == nil && token != "" {
			if verified, ok := tokens.Verify(token); ok {
				claims = verified
			}
		}

		decision := policy.Evaluate(c.Request.URL.Path, claims)
		if !decision.Allow {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}
		if claims != nil {
			c.Set(ContextClaims, claims)
			c.Set(ContextUserID, claims.UserID)
		}
		c.Next()
	}
}

func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated user's id or uuid.Nil.
func UserID(c *gin.Context) uuid.UUID {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return uuid.Nil
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"besaha/internal/pkg/jwt"
	"besaha/internal/pkg/response"
	"besaha/internal/session"
)

// JWTAuth requires a valid bearer token and attaches the caller's session.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code := bearerToken(c)
		if code != "" {
			msg := "Authorization header required"
			if code == "INVALID_AUTH_FORMAT" {
				msg = "Authorization header must be Bearer <token>"
			}
			response.Abort(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		attach(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, code := bearerToken(c); code == "" {
			if claims, err := jwtService.ValidateToken(token); err == nil {
				attach(c, claims)
			}
		}
		c.Next()
	}
}

func attach(c *gin.Context, claims *jwt.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	sess := session.Session{UserID: claims.UserID, UserName: claims.Name, Role: claims.Role}
	c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), sess))
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for websocket upgrades where browsers cannot set headers.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("token"); q != "" {
			return q, ""
		}
		return "", "AUTH_HEADER_MISSING"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT"
	}
	return strings.TrimSpace(parts[1]), ""
}

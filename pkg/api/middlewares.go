package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// AuthMiddleware checks if the request is authenticated
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			log.Error().Msg("No Authorization token provided")
			c.JSON(http.StatusUnauthorized, defaultErrorResponse("unauthorized"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(token, "Bearer ")
		claims, err := deps.Auth.ValidateToken(tokenString)
		if err != nil {
			log.Error().Err(err).Msg("Invalid token")
			c.JSON(http.StatusUnauthorized, defaultErrorResponse("invalid token"))
			c.Abort()
			return
		}

		// Pass the claims to the next middleware/handler
		c.Set("userInfo", claims)
		c.Next()
	}
}

// authorFromContext pulls the authenticated commenter out of the gin
// context; AuthMiddleware must have run.
func authorFromContext(c *gin.Context) (authorID, authorEmail string, ok bool) {
	claimsValue, exists := c.Get("userInfo")
	if !exists {
		return "", "", false
	}
	claims, ok := claimsValue.(*jwt.RegisteredClaims)
	if !ok {
		return "", "", false
	}
	return claims.ID, claims.Subject, true
}

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// TokenQueryParam carries the bearer token for /ws, since browser
// WebSocket clients cannot set headers
const TokenQueryParam = "token"

// AuthMiddleware handles JWT authentication. An empty secret disables it.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return authMiddleware(secret, false)
}

// WebSocketAuthMiddleware is AuthMiddleware that also accepts ?token=
func WebSocketAuthMiddleware(secret string) gin.HandlerFunc {
	return authMiddleware(secret, true)
}

func authMiddleware(secret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		tokenString := c.GetHeader("Authorization")
		if tokenString == "" && allowQuery {
			tokenString = c.Query(TokenQueryParam)
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IssueToken signs an HS256 token with the given subject, for operators and tests
func IssueToken(secret, subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{Subject: subject})
	return token.SignedString([]byte(secret))
}

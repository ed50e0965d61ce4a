package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"marate/pkg/ledger"
)

// issueToken signs a 24h session token carrying the principal's identity.
func issueToken(p ledger.Principal) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": p.Username,
		"role":     p.Role,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// jwtAuthMiddleware verifies the bearer token and resolves it to a live
// principal on every request, so role and username changes take effect
// without waiting for token expiry.
func jwtAuthMiddleware(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		principal, err := engine.PrincipalByUsername(c.Request.Context(), username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}
		c.Set("principal", principal)
		c.Next()
	}
}

// principalFromContext fetches the principal set by jwtAuthMiddleware.
func principalFromContext(c *gin.Context) (ledger.Principal, bool) {
	v, ok := c.Get("principal")
	if !ok {
		return ledger.Principal{}, false
	}
	p, ok := v.(ledger.Principal)
	return p, ok
}

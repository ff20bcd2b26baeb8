package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jengzang/spots-backend-go/pkg/response"
)

// ErrMissingSubject is returned for tokens without a subject claim
var ErrMissingSubject = errors.New("token has no subject")

// ParseToken validates an HS256 bearer token and returns its subject
func ParseToken(tokenString string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// Auth middleware resolves the bearer token into "user_id". With required
// set, anonymous requests are rejected; an invalid token is always rejected.
func Auth(secret string, required bool) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				response.Unauthorized(c, "Missing bearer token")
				return
			}
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.Unauthorized(c, "Malformed authorization header")
			return
		}
		sub, err := ParseToken(strings.TrimSpace(tokenString), key)
		if err != nil {
			_ = c.Error(err)
			response.Unauthorized(c, "Invalid token")
			return
		}

		c.Set("user_id", sub)
		c.Next()
	}
}

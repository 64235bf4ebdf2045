package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// Context keys set by AdminAuth
const (
	ContextAdminID    = "adminID"
	ContextAdminEmail = "adminEmail"
)

// HTTPMetrics records served requests
type HTTPMetrics interface {
	ObserveHTTPRequest(path, method string, status int, duration time.Duration)
}

// AdminAuth verifies an HS256 bearer token issued by the admin login
func AdminAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization header is required", Code: "UNAUTHORIZED"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization header must start with Bearer", Code: "UNAUTHORIZED"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimPrefix(authHeader, bearerSchema), claims, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token has expired"
			}
			log.WithError(err).Warn("Rejected admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: msg, Code: "UNAUTHORIZED"})
			return
		}

		if id, ok := claims["id"].(string); ok {
			c.Set(ContextAdminID, id)
		}
		if email, ok := claims["email"].(string); ok {
			c.Set(ContextAdminEmail, email)
		}
		c.Next()
	}
}

// RequestMetrics records status and latency per route template
func RequestMetrics(metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// RequestLogger logs each request with logrus
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("HTTP request")
		} else {
			entry.Debug("HTTP request")
		}
	}
}

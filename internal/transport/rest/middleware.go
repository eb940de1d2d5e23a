package rest

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ownerKey          = "owner_id"
	defaultCSRFCookie = "csrftoken"
	csrfHeader        = "X-CSRFToken"
	staticOwner       = "static"
)

// AuthConfig accepts HMAC-signed JWTs, whose subject becomes the owner id,
// and fixed bearer tokens mapped to owners.
type AuthConfig struct {
	JWTSecret    string
	StaticTokens map[string]string
}

// ParseStaticTokens reads a comma separated list of "owner=token" entries.
// A bare token is owned by "static".
func ParseStaticTokens(s string) map[string]string {
	out := map[string]string{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		owner, token, ok := strings.Cut(entry, "=")
		if !ok {
			owner, token = staticOwner, entry
		}
		owner, token = strings.TrimSpace(owner), strings.TrimSpace(token)
		if owner == "" || token == "" {
			continue
		}
		out[token] = owner
	}
	return out
}

func authenticate(cfg AuthConfig) gin.HandlerFunc {
	secret := []byte(strings.TrimSpace(cfg.JWTSecret))

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		if len(secret) > 0 {
			if owner, ok := jwtOwner(tokenStr, secret); ok {
				c.Set(ownerKey, owner)
				c.Next()
				return
			}
		}

		for token, owner := range cfg.StaticTokens {
			if subtle.ConstantTimeCompare([]byte(tokenStr), []byte(token)) == 1 {
				c.Set(ownerKey, owner)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

func jwtOwner(tokenStr string, secret []byte) (string, bool) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return secret, nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// checkCSRF enforces the double-submit pattern on mutating requests: the
// X-CSRFToken header must match the CSRF cookie.
func checkCSRF(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		cookie, err := c.Cookie(cookieName)
		header := c.GetHeader(csrfHeader)
		if err != nil || cookie == "" || header == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf token missing or invalid"})
			return
		}
		c.Next()
	}
}

func issueCSRF(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := randomToken(32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(cookieName, token, 0, "/", "", c.Request.TLS != nil, false)
		c.JSON(http.StatusOK, gin.H{"csrf_token": token})
	}
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}
		if owner := ownerID(c); owner != "" {
			args = append(args, slog.String("owner_id", owner))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", args...)
		case status >= 400:
			log.Warn("request", args...)
		default:
			log.Info("request", args...)
		}
	}
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

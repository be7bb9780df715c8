package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wk-archive/meetingmind/internal/config"
)

// Routes bundles every handler the router wires up.
type Routes struct {
	Health    *HealthHandler
	Chat      *ChatHandler
	Whitelist *WhitelistHandler
	Monitor   *MonitorHandler
	Webhook   *WebhookHandler
}

// NewRouter builds the gin engine and registers every route in spec.md §6.
func NewRouter(routes Routes, admin config.AdminConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/health", routes.Health.Health)
	r.POST("/messaging/webhook", routes.Webhook.Webhook)

	adminGroup := r.Group("/admin")
	adminGroup.Use(adminAuth(admin))
	adminGroup.POST("/chat", routes.Chat.Chat)
	adminGroup.GET("/whitelist", routes.Whitelist.List)
	adminGroup.POST("/whitelist", routes.Whitelist.Upsert)
	adminGroup.PUT("/whitelist/:id", routes.Whitelist.Upsert)
	adminGroup.DELETE("/whitelist/:id", routes.Whitelist.Delete)

	monitorGroup := r.Group("/monitor")
	monitorGroup.Use(adminAuth(admin))
	monitorGroup.GET("/status", routes.Monitor.Status)
	monitorGroup.POST("/trigger", routes.Monitor.Trigger)
	monitorGroup.POST("/start", routes.Monitor.Start)
	monitorGroup.POST("/stop", routes.Monitor.Stop)

	return r
}

// adminAuth rejects requests bearing no valid HS256 JWT signed with
// AdminConfig.JWTSecret. It is a no-op when AuthEnabled is false, which is
// the default for local/dev use. Tokens are minted out of band with
// IssueAdminToken; this middleware only verifies.
func adminAuth(cfg config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.AuthEnabled {
			c.Next()
			return
		}
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// IssueAdminToken checks password against AdminConfig.PasswordHash and, on
// success, mints a bearer token for /admin/* and /monitor/* access signed
// with AdminConfig.JWTSecret, valid for ttl. It is not registered as an
// HTTP route, and cmd/assistant has no flag that calls it.
func IssueAdminToken(cfg config.AdminConfig, subject, password string, ttl time.Duration) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("admin token: %w", err)
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/config"
)

// testPasswordHash is the bcrypt (cost 10) hash of the literal password
// "password" -- a widely published bcrypt test vector, used here only so
// the test suite doesn't need a live bcrypt.GenerateFromPassword call.
const testPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func TestAdminAuth_NoopWhenDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/admin/ping", adminAuth(config.AdminConfig{AuthEnabled: false}), func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestAdminAuth_RejectsMissingToken(t *testing.T) {
	r := gin.New()
	r.GET("/admin/ping", adminAuth(config.AdminConfig{AuthEnabled: true, JWTSecret: "s3cr3t"}), func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAdminAuth_RejectsTokenSignedWithWrongSecret(t *testing.T) {
	r := gin.New()
	r.GET("/admin/ping", adminAuth(config.AdminConfig{AuthEnabled: true, JWTSecret: "s3cr3t"}), func(c *gin.Context) { c.Status(200) })

	token, err := IssueAdminToken(config.AdminConfig{JWTSecret: "wrong-secret", PasswordHash: testPasswordHash}, "oncall", "password", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAdminAuth_AcceptsValidToken(t *testing.T) {
	cfg := config.AdminConfig{AuthEnabled: true, JWTSecret: "s3cr3t", PasswordHash: testPasswordHash}
	r := gin.New()
	r.GET("/admin/ping", adminAuth(cfg), func(c *gin.Context) { c.Status(200) })

	token, err := IssueAdminToken(cfg, "oncall", "password", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestAdminAuth_RejectsExpiredToken(t *testing.T) {
	cfg := config.AdminConfig{AuthEnabled: true, JWTSecret: "s3cr3t", PasswordHash: testPasswordHash}
	r := gin.New()
	r.GET("/admin/ping", adminAuth(cfg), func(c *gin.Context) { c.Status(200) })

	token, err := IssueAdminToken(cfg, "oncall", "password", -time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestIssueAdminToken_RejectsWrongPassword(t *testing.T) {
	cfg := config.AdminConfig{JWTSecret: "s3cr3t", PasswordHash: testPasswordHash}
	_, err := IssueAdminToken(cfg, "oncall", "not-the-password", time.Hour)
	require.Error(t, err)
}

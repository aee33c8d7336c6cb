package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/services"
	"gorm.io/gorm"
)

// stubUserRepository lets tests control what the user lookup returns
// without a database.
type stubUserRepository struct {
	user *models.User
	err  error
}

func (r *stubUserRepository) CreateWithAudit(*models.User, *models.AuditLog) error { return nil }

func (r *stubUserRepository) FindByID(uint64) (*models.User, error) { return r.user, r.err }

func (r *stubUserRepository) FindByUsername(string) (*models.User, error) { return r.user, r.err }

func (r *stubUserRepository) FindByEmail(string) (*models.User, error) { return r.user, r.err }

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func newTestTokenService() *services.TokenService {
	return services.NewTokenService(&config.Config{
		JWTSecret:       "test-secret-key-for-middleware",
		JWTIssuer:       "test",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Minute,
	})
}

func TestClientIP_ForwardedForFirstEntry(t *testing.T) {
	c, _ := newTestContext("GET", "/")
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1, 10.0.0.2")

	assert.Equal(t, "203.0.113.7", ClientIP(c))
}

func TestClientIP_ForwardedForTrimsWhitespace(t *testing.T) {
	c, _ := newTestContext("GET", "/")
	c.Request.Header.Set("X-Forwarded-For", "  203.0.113.7  ,10.0.0.1")

	assert.Equal(t, "203.0.113.7", ClientIP(c))
}

func TestClientIP_ForwardedForSingleEntry(t *testing.T) {
	c, _ := newTestContext("GET", "/")
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7")

	assert.Equal(t, "203.0.113.7", ClientIP(c))
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	c, _ := newTestContext("GET", "/")
	c.Request.RemoteAddr = "198.51.100.4:54321"

	assert.Equal(t, "198.51.100.4", ClientIP(c))
}

func TestClientIP_RemoteAddrWithoutPort(t *testing.T) {
	c, _ := newTestContext("GET", "/")
	c.Request.RemoteAddr = "198.51.100.4"

	assert.Equal(t, "198.51.100.4", ClientIP(c))
}

func TestRequireAuth_UnknownUserIsUnauthorized(t *testing.T) {
	tokens := newTestTokenService()
	access, err := tokens.IssueAccess(&models.User{ID: 99, Username: "ghost"})
	assert.NoError(t, err)

	c, w := newTestContext("GET", "/")
	c.Request.Header.Set("Authorization", "Bearer "+access)

	RequireAuth(tokens, &stubUserRepository{err: gorm.ErrRecordNotFound})(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireAuth_StorageFailureIsNotUnauthorized(t *testing.T) {
	tokens := newTestTokenService()
	access, err := tokens.IssueAccess(&models.User{ID: 1, Username: "alice"})
	assert.NoError(t, err)

	c, w := newTestContext("GET", "/")
	c.Request.Header.Set("Authorization", "Bearer "+access)

	RequireAuth(tokens, &stubUserRepository{err: errors.New("connection reset")})(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireAuth_InactiveUserIsUnauthorized(t *testing.T) {
	tokens := newTestTokenService()
	user := &models.User{ID: 1, Username: "alice", IsActive: false}
	access, err := tokens.IssueAccess(user)
	assert.NoError(t, err)

	c, w := newTestContext("GET", "/")
	c.Request.Header.Set("Authorization", "Bearer "+access)

	RequireAuth(tokens, &stubUserRepository{user: user})(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

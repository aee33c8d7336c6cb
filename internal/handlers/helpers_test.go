package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/services"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires an in-memory database, the full service stack, and a router
// with the real auth middleware so handler tests cover the same path as
// production requests.
type testEnv struct {
	db           *gorm.DB
	tokenService *services.TokenService
	authService  *services.AuthService
	taskService  *services.TaskService
	auditService *services.AuditService
	router       *gin.Engine
}

func newTestEnv() (*testEnv, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.AuditLog{}); err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := services.NewAuditService(auditRepo, zap.NewNop())
	tokenService := services.NewTokenService(&config.Config{
		JWTSecret:       "test-secret-key-for-handler-tests",
		JWTIssuer:       "test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	authService := services.NewAuthService(userRepo, tokenService, auditService, zap.NewNop())
	taskService := services.NewTaskService(taskRepo, auditService, zap.NewNop())

	authHandler := NewAuthHandler(authService)
	taskHandler := NewTaskHandler(taskService)
	adminHandler := NewAdminHandler(auditService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/profile", middleware.RequireAuth(tokenService, userRepo), authHandler.Profile)

	tasks := api.Group("/tasks")
	tasks.Use(middleware.RequireAuth(tokenService, userRepo))
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.ReplaceTask)
	tasks.PATCH("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(tokenService, userRepo), middleware.RequireSuperuser())
	admin.GET("/audit-logs", adminHandler.ListAuditLogs)
	admin.DELETE("/audit-logs", adminHandler.PurgeAuditLogs)

	return &testEnv{
		db:           db,
		tokenService: tokenService,
		authService:  authService,
		taskService:  taskService,
		auditService: auditService,
		router:       router,
	}, nil
}

func (e *testEnv) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (e *testEnv) createUser(username string, superuser bool) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("Secret123!"), bcrypt.MinCost)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		IsSuperuser:  superuser,
	}
	e.db.Create(user)
	return user
}

func (e *testEnv) accessToken(user *models.User) string {
	token, _ := e.tokenService.IssueAccess(user)
	return token
}

// request performs an HTTP request against the test router. A non-empty
// token is sent as a bearer credential.
func (e *testEnv) request(method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(w *httptest.ResponseRecorder) (map[string]interface{}, error) {
	var envelope map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &envelope)
	return envelope, err
}

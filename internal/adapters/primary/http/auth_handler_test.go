package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	mw "github.com/lorrc/insuredesk-backend/internal/adapters/primary/http/middleware"
	pgadapter "github.com/lorrc/insuredesk-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/insuredesk-backend/internal/auth"
	"github.com/lorrc/insuredesk-backend/internal/core/services"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		pgcontainer.WithDatabase("test-db"),
		pgcontainer.WithUsername("user"),
		pgcontainer.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("could not get connection string: %v", err)
	}

	migrationsPath, err := filepath.Abs("../../../../migrations")
	if err != nil {
		log.Fatalf("could not find migrations directory: %v", err)
	}

	migrationURL := "file://" + migrationsPath
	mig, err := migrate.New(migrationURL, connStr)
	if err != nil {
		log.Fatalf("could not create migrate instance: %v", err)
	}
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("could not run migrations: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("could not create connection pool: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Fatalf("could not terminate postgres container: %v", err)
	}

	os.Exit(code)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthRouter() (*chi.Mux, *auth.TokenManager) {
	logger := newTestLogger()
	userRepo := pgadapter.NewUserRepository(testPool)
	auditRepo := pgadapter.NewAuditLogRepository(testPool)
	authService := services.NewAuthService(userRepo, auditRepo, logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)
	errorHandler := NewErrorHandler(logger)
	authHandler := NewAuthHandler(authService, userRepo, tokenManager, errorHandler)

	router := chi.NewRouter()
	router.Post("/auth/login", authHandler.HandleLogin)
	router.Post("/auth/register", authHandler.HandleRegister)
	router.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tokenManager))
		r.Get("/auth/me", authHandler.HandleMe)
	})

	return router, tokenManager
}

func postJSON(t *testing.T, router *chi.Mux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(stdhttp.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router, _ := newAuthRouter()
	email := uuid.NewString() + "@example.com"

	recorder := postJSON(t, router, "/auth/register", RegisterRequest{
		FullName: "Dana Whitfield",
		Email:    email,
		Password: "Password1",
		Role:     "agent",
	})
	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var registered map[string]UserResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&registered))
	assert.Equal(t, email, registered["user"].Email)
	assert.Equal(t, "Dana Whitfield", registered["user"].Name)
	assert.True(t, registered["user"].IsActive)

	recorder = postJSON(t, router, "/auth/login", LoginRequest{
		Email:    email,
		Password: "Password1",
	})
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var tokenResponse TokenResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&tokenResponse))
	require.NotEmpty(t, tokenResponse.Token)
	assert.Equal(t, registered["user"].ID, tokenResponse.User.ID)

	req := httptest.NewRequest(stdhttp.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResponse.Token)
	meRecorder := httptest.NewRecorder()
	router.ServeHTTP(meRecorder, req)

	require.Equal(t, stdhttp.StatusOK, meRecorder.Code)

	var me map[string]UserResponse
	require.NoError(t, json.NewDecoder(meRecorder.Body).Decode(&me))
	assert.Equal(t, email, me["user"].Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	router, _ := newAuthRouter()
	email := uuid.NewString() + "@example.com"

	request := RegisterRequest{
		FullName: "Dana Whitfield",
		Email:    email,
		Password: "Password1",
		Role:     "manager",
	}

	recorder := postJSON(t, router, "/auth/register", request)
	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	recorder = postJSON(t, router, "/auth/register", request)
	require.Equal(t, stdhttp.StatusConflict, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "USER_EXISTS", response.Code)
}

func TestRegister_UnknownRole(t *testing.T) {
	router, _ := newAuthRouter()

	recorder := postJSON(t, router, "/auth/register", RegisterRequest{
		FullName: "Dana Whitfield",
		Email:    uuid.NewString() + "@example.com",
		Password: "Password1",
		Role:     "supervisor",
	})

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestRegister_WeakPassword(t *testing.T) {
	router, _ := newAuthRouter()

	recorder := postJSON(t, router, "/auth/register", RegisterRequest{
		FullName: "Dana Whitfield",
		Email:    uuid.NewString() + "@example.com",
		Password: "weak",
		Role:     "agent",
	})

	require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)

	var response ValidationErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Contains(t, response.Fields, "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	router, _ := newAuthRouter()
	email := uuid.NewString() + "@example.com"

	recorder := postJSON(t, router, "/auth/register", RegisterRequest{
		FullName: "Dana Whitfield",
		Email:    email,
		Password: "Password1",
		Role:     "agent",
	})
	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	recorder = postJSON(t, router, "/auth/login", LoginRequest{
		Email:    email,
		Password: "WrongPassword1",
	})
	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "INVALID_CREDENTIALS", response.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	router, _ := newAuthRouter()

	recorder := postJSON(t, router, "/auth/login", LoginRequest{
		Email:    uuid.NewString() + "@example.com",
		Password: "Password1",
	})

	// Unknown accounts answer like wrong passwords so the endpoint does
	// not leak which emails exist.
	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}

func TestMe_Unauthorized(t *testing.T) {
	router, _ := newAuthRouter()

	req := httptest.NewRequest(stdhttp.MethodGet, "/auth/me", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}

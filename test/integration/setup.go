package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"

	handler "github.com/taskhub/api/internal/adapters/handler/http"
	"github.com/taskhub/api/internal/adapters/hasher"
	repo "github.com/taskhub/api/internal/adapters/repository/postgres"
	jwtcodec "github.com/taskhub/api/internal/adapters/token/jwt"
	"github.com/taskhub/api/internal/core/ports"
	"github.com/taskhub/api/internal/core/services"
)

const testJWTSecret = "test-secret"

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dirPath, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return nil
}

// MockVerifier accepts any credential of the form "google:<provider_id>:<email>:<name>".
type MockVerifier struct{}

func (v *MockVerifier) Verify(_ context.Context, credential string, _ string) (*ports.FederatedProfile, error) {
	parts := strings.SplitN(credential, ":", 4)
	if len(parts) != 4 || parts[0] != "google" {
		return nil, fmt.Errorf("invalid credential")
	}
	return &ports.FederatedProfile{
		Provider:   "GOOGLE",
		ProviderID: parts[1],
		Email:      parts[2],
		Name:       parts[3],
	}, nil
}

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	DBContainer testcontainers.Container
	RefreshRepo ports.RefreshTokenRepository
	Codec       ports.TokenCodec
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	require.NoError(t, applyMigrations(db))

	userRepo := repo.NewUserRepository(db)
	refreshRepo := repo.NewRefreshTokenRepository(db)

	codec := jwtcodec.NewCodec([]byte(testJWTSecret), 15*time.Minute, 7*24*time.Hour)
	resolver := services.NewIdentityService(userRepo, hasher.NewBcryptHasher())
	authSvc := services.NewAuthService(resolver, refreshRepo, codec, &MockVerifier{}, "client-id", 7*24*time.Hour)
	userSvc := services.NewUserService(userRepo)
	authenticator := services.NewRequestAuthenticator(codec, refreshRepo)

	router := handler.NewHandler(
		handler.NewAuthMiddleware(authenticator),
		handler.NewAuthHandler(authSvc, resolver),
		handler.NewUserHandler(userSvc, authSvc),
	)

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		DBContainer: dbContainer,
		RefreshRepo: refreshRepo,
		Codec:       codec,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	t.Helper()
	app.Server.Close()
	require.NoError(t, app.DB.Close())
	require.NoError(t, app.DBContainer.Terminate(context.Background()))
}

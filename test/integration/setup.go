package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/keyvote/internal/app"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

const adminPassword = "integration-password"

type TestApp struct {
	DB          *sql.DB
	App         *app.App
	Server      *httptest.Server
	Client      *http.Client
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
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

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sqldb.Open(ctx, sqldb.DriverPostgres, dbURL)
	require.NoError(t, err)

	err = sqldb.Migrate(ctx, db)
	require.NoError(t, err)

	hash, err := services.HashAdminPassword(adminPassword)
	require.NoError(t, err)

	application := app.NewWithStore(sqldb.NewStore(db), services.AuthConfig{
		JWTSecret:         []byte("test-secret"),
		AdminPasswordHash: hash,
	}, []byte("test-hash-secret"))

	server := httptest.NewServer(application.Handler())

	return &TestApp{
		DB:          db,
		App:         application,
		Server:      server,
		Client:      server.Client(),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func (app *TestApp) post(t *testing.T, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, app.Server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	return app.send(t, req)
}

func (app *TestApp) get(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, app.Server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	return app.send(t, req)
}

func (app *TestApp) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (app *TestApp) adminToken(t *testing.T) string {
	t.Helper()
	resp, body := app.post(t, "/api/admin/login", "", map[string]string{"password": adminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/netvoya/backend/config"
	"github.com/netvoya/backend/internal/db"
	"github.com/netvoya/backend/internal/server"
)

const serverPort = 13001

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	setTestEnv()

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/api/health"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
	Token string `json:"token"`
}

func TestRegistrationAndLogin(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	username := fmt.Sprintf("alice_%d", suffix)
	email := fmt.Sprintf("alice_%d@x.com", suffix)
	password := "p@ss1234"

	// Register.
	status, registered, err := postJSON(t, baseURL+"/api/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("register status %d, want 201", status)
	}
	if registered.User.Role != "partner" {
		t.Fatalf("registered role %q, want partner", registered.User.Role)
	}
	if registered.Token == "" {
		t.Fatalf("register returned no token")
	}

	// Duplicate username must 409.
	status, _, err = postJSON(t, baseURL+"/api/register", map[string]string{
		"username": username,
		"email":    fmt.Sprintf("other_%d@x.com", suffix),
		"password": "different1",
	})
	if err != nil {
		t.Fatalf("duplicate register: %v", err)
	}
	if status != http.StatusConflict {
		t.Fatalf("duplicate register status %d, want 409", status)
	}

	// Login with the username in the email field.
	status, loggedIn, err := postJSON(t, baseURL+"/api/login", map[string]string{
		"email":    username,
		"password": password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("login status %d, want 200", status)
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("login user id %d, want %d", loggedIn.User.ID, registered.User.ID)
	}

	// Wrong password must 401.
	status, _, err = postJSON(t, baseURL+"/api/login", map[string]string{
		"email":    email,
		"password": "wrong",
	})
	if err != nil {
		t.Fatalf("bad login: %v", err)
	}
	if status != http.StatusUnauthorized {
		t.Fatalf("bad login status %d, want 401", status)
	}
}

func TestUserListing(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	resp, err := http.Get(baseURL + "/api/users")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list users status %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read listing: %v", err)
	}
	if strings.Contains(string(body), "password") {
		t.Fatalf("listing leaks password material")
	}

	var users []map[string]any
	if err := json.Unmarshal(body, &users); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
}

func postJSON(t *testing.T, url string, payload map[string]string) (int, apiResponse, error) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, apiResponse{}, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, apiResponse{}, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return resp.StatusCode, apiResponse{}, err
	}
	return resp.StatusCode, parsed, nil
}

func setTestEnv() {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "netvoya")
	_ = os.Setenv("DB_PASSWORD", "netvoya")
	_ = os.Setenv("DB_NAME", "netvoya")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("EVENTS_BACKEND", "none")
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}

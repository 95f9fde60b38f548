package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
env: "dev"
http_server:
  address: "localhost:3000"
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverSQLite)
	}
	if cfg.Storage.Path != "storage/personas.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Storage.Postgres.DBName != "proyecto" {
		t.Errorf("Postgres.DBName = %q, want proyecto", cfg.Storage.Postgres.DBName)
	}
	if cfg.Import.MaxFileSize != 10<<20 {
		t.Errorf("Import.MaxFileSize = %d", cfg.Import.MaxFileSize)
	}
	if cfg.Import.MaxConcurrent != 4 {
		t.Errorf("Import.MaxConcurrent = %d, want 4", cfg.Import.MaxConcurrent)
	}
	if cfg.Import.MaxWait != 10*time.Second {
		t.Errorf("Import.MaxWait = %v, want 10s", cfg.Import.MaxWait)
	}
	if cfg.Import.PreserveEmptyStoreGap {
		t.Error("Import.PreserveEmptyStoreGap should default to false")
	}
	if cfg.HTTPServer.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.HTTPServer.ShutdownTimeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("IMPORT_MAX_CONCURRENT", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(writeConfig(t, minimal+`
storage:
  driver: "sqlite"
import:
  max_concurrent: 2
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Import.MaxConcurrent != 8 {
		t.Errorf("Import.MaxConcurrent = %d, want 8", cfg.Import.MaxConcurrent)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{
			name: "empty path",
			path: func(t *testing.T) string { return "" },
			want: "config path is not set",
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			want: "does not exist",
		},
		{
			name: "unknown driver",
			path: func(t *testing.T) string {
				return writeConfig(t, minimal+"storage:\n  driver: \"mysql\"\n")
			},
			want: "STORAGE_DRIVER",
		},
		{
			name: "pool sizes",
			path: func(t *testing.T) string {
				return writeConfig(t, minimal+"storage:\n  driver: \"postgres\"\n  postgres:\n    max_conns: 1\n    min_conns: 5\n")
			},
			want: "DB_MAX_CONNS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllFailures(t *testing.T) {
	cfg := Config{Storage: Storage{Driver: "oracle"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"STORAGE_DRIVER", "IMPORT_MAX_FILE_SIZE", "IMPORT_MAX_CONCURRENT", "IMPORT_MAX_WAIT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	p := Postgres{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "proyecto", SSLMode: "disable"}

	want := "host=db port=5433 user=u password=p dbname=proyecto sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

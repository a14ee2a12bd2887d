package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsFileAndNormalizesLists(t *testing.T) {
	path := writeConfigFile(t, `
database:
  dsn: "file::memory:"
cache:
  apps_ttl: 5s
auth:
  admin_emails: [" Root@School.org ", "root@school.org"]
  allowed_email_domains: ["School.org"]
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.AppsTTL != 5*time.Second {
		t.Fatalf("apps_ttl = %s", cfg.Cache.AppsTTL)
	}
	if cfg.Cache.UsersTTL != 60*time.Second {
		t.Fatalf("users_ttl default = %s", cfg.Cache.UsersTTL)
	}
	if len(cfg.Auth.AdminEmails) != 1 || cfg.Auth.AdminEmails[0] != "root@school.org" {
		t.Fatalf("admin_emails = %v", cfg.Auth.AdminEmails)
	}
	if len(cfg.Auth.AllowedEmailDomains) != 1 || cfg.Auth.AllowedEmailDomains[0] != "school.org" {
		t.Fatalf("allowed_email_domains = %v", cfg.Auth.AllowedEmailDomains)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("server.addr default = %q", cfg.Server.Addr)
	}
}

func TestLoadRejectsNegativeTTL(t *testing.T) {
	path := writeConfigFile(t, `
database:
  dsn: "file::memory:"
cache:
  apps_ttl: -1s
`)

	if _, err := Load(context.Background(), path); err == nil {
		t.Fatalf("Load() expected error for negative apps_ttl")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
database:
  dsn: "file::memory:"
`)
	t.Setenv("APPCAT_CACHE_USERS_TTL", "2m")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.UsersTTL != 2*time.Minute {
		t.Fatalf("users_ttl = %s, want 2m", cfg.Cache.UsersTTL)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() expected error for missing explicit file")
	}
}

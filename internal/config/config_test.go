package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
jwt:
  secret: s3cret
storage:
  bucket: item-images
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Region != "us-east-1" {
		t.Errorf("expected default region, got %q", cfg.Storage.Region)
	}
	if cfg.Upload.MaxBytes != 20<<20 {
		t.Errorf("expected default upload limit, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.JWT.TTL != 365*24*time.Hour {
		t.Errorf("expected default token ttl, got %s", cfg.JWT.TTL)
	}
	if cfg.Redis.Addr != "" || cfg.Redis.Channel != "archive_events" {
		t.Errorf("expected local events on the default channel, got %+v", cfg.Redis)
	}
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  read_timeout: 5s
jwt:
  secret: s3cret
  ttl: 2h
storage:
  bucket: item-images
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.JWT.TTL != 2*time.Hour {
		t.Errorf("expected 2h, got %s", cfg.JWT.TTL)
	}
}

func TestParseRequiresSecretAndBucket(t *testing.T) {
	if _, err := Parse([]byte("storage:\n  bucket: b\n")); err == nil {
		t.Error("expected error without jwt secret")
	}
	if _, err := Parse([]byte("jwt:\n  secret: s\n")); err == nil {
		t.Error("expected error without bucket")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("jwt:\n  secret: s\nstorage:\n  bucket: b\ndatabase:\n  host: db\n  user: archive\n  dbname: archive\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := "host=db port=5432 user=archive password= dbname=archive sslmode=disable"
	if got := cfg.Database.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
sources:
  - name: gmpwatch
    kind: document
    base_url: https://example.com
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected port %d", cfg.Server.Port)
	}
	if cfg.Quota.DailyLimit != 25 {
		t.Fatalf("unexpected daily limit %d", cfg.Quota.DailyLimit)
	}
	if cfg.Quota.Timezone != "Asia/Kolkata" {
		t.Fatalf("unexpected timezone %q", cfg.Quota.Timezone)
	}
	if cfg.Aggregator.Concurrency != 2 {
		t.Fatalf("unexpected concurrency %d", cfg.Aggregator.Concurrency)
	}
	if cfg.Kafka.Topic != "ipopulse.passes" {
		t.Fatalf("unexpected topic %q", cfg.Kafka.Topic)
	}

	src := cfg.Sources[0]
	if src.Timeout != 30*time.Second || src.Retries != 2 || src.BaseBackoff != time.Second {
		t.Fatalf("source defaults not applied: %+v", src)
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	body := `
sources:
  - name: odd
    kind: carrier-pigeon
    base_url: https://example.com
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for unknown kind")
	}
}

func TestLoadRejectsRateLimitedWithoutKeyEnv(t *testing.T) {
	body := `
sources:
  - name: api
    kind: structured
    base_url: https://example.com
    rate_limited: true
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error: rate-limited source without api_key_env")
	}
}

func TestLoadRejectsTwoRateLimitedSources(t *testing.T) {
	body := `
sources:
  - name: a
    kind: structured
    base_url: https://example.com
    rate_limited: true
    api_key_env: KEY_A
  - name: b
    kind: structured
    base_url: https://example.org
    rate_limited: true
    api_key_env: KEY_B
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for two rate-limited sources")
	}
}

func TestLoadRejectsDuplicateSourceNames(t *testing.T) {
	body := `
sources:
  - name: dup
    kind: document
    base_url: https://example.com
  - name: dup
    kind: document
    base_url: https://example.org
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for duplicate names")
	}
}

func TestLoadRejectsBadWindowStart(t *testing.T) {
	body := minimalConfig + `
quota:
  windows:
    - fetch_type: open
      start: "25:99"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for unparseable window start")
	}
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	body := minimalConfig + `
postgres:
  enabled: true
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error: postgres enabled without dsn")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "cache:6380" {
		t.Fatalf("redis addr not overridden: %q", cfg.Redis.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level not overridden: %q", cfg.Log.Level)
	}
}

func TestSourceLookup(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cfg.Source("gmpwatch"); !ok {
		t.Fatalf("expected to find configured source")
	}
	if _, ok := cfg.Source("nope"); ok {
		t.Fatalf("unexpected source found")
	}
}

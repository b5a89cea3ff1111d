package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"decihire/internal/model"
	"decihire/internal/scoring"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COMPLETION_POLICY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CompletionPolicy != model.PolicyAllowPartial {
		t.Fatalf("policy = %q, want allow-partial", cfg.CompletionPolicy)
	}
	if cfg.Scoring.PassThreshold != 75 {
		t.Fatalf("pass threshold = %.2f, want 75", cfg.Scoring.PassThreshold)
	}
	if cfg.InvitationTTL != 72*time.Hour {
		t.Fatalf("invitation ttl = %s, want 72h", cfg.InvitationTTL)
	}
	if cfg.SessionTimeLimit != 10*time.Minute {
		t.Fatalf("session time limit = %s, want 10m", cfg.SessionTimeLimit)
	}
}

func TestLoadSessionTimeLimit(t *testing.T) {
	t.Setenv("COMPLETION_POLICY", "")
	t.Setenv("SESSION_TIME_LIMIT", "0s")
	cfg, err := Load()
	if err != nil || cfg.SessionTimeLimit != 0 {
		t.Fatalf("limit=%v err=%v, want disabled", cfg, err)
	}

	t.Setenv("SESSION_TIME_LIMIT", "-1m")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative SESSION_TIME_LIMIT")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COMPLETION_POLICY", "require-complete")
	t.Setenv("PASS_THRESHOLD", "60")
	t.Setenv("LATENCY_TOO_FAST_MS", "5000")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("STORE_RETRY_BASE_DELAY", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CompletionPolicy != model.PolicyRequireComplete {
		t.Fatalf("policy = %q, want require-complete", cfg.CompletionPolicy)
	}
	if cfg.Scoring.PassThreshold != 60 || cfg.Scoring.Latency.TooFastMs != 5000 {
		t.Fatalf("scoring = %+v", cfg.Scoring)
	}
	if cfg.RedisAddr != "cache:6379" {
		t.Fatalf("redis addr = %q, want cache:6379", cfg.RedisAddr)
	}
	if cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("retry delay = %s, want 250ms", cfg.RetryBaseDelay)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("COMPLETION_POLICY", "whatever")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestScoringFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	body := []byte(`
passThreshold: 80
rubric:
  acceptable: 0.4
latency:
  optimalMaxMs: 90000
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SCORING_CONFIG", path)
	t.Setenv("COMPLETION_POLICY", "")
	t.Setenv("PASS_THRESHOLD", "70")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	s := cfg.Scoring
	if s.PassThreshold != 70 {
		t.Fatalf("pass threshold = %.2f, want env value 70", s.PassThreshold)
	}
	if s.Rubric[model.GradeAcceptable] != 0.4 || s.Rubric[model.GradeBest] != 1 {
		t.Fatalf("rubric = %v", s.Rubric)
	}
	if s.Latency.OptimalMaxMs != 90000 || s.Latency.TooFastMs != 15000 {
		t.Fatalf("latency = %+v", s.Latency)
	}
}

func TestParseScoringRejectsBadYAML(t *testing.T) {
	dst := scoring.DefaultConfig()
	if err := parseScoring([]byte("rubric: [1, 2"), &dst); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRejectsInvalidScoring(t *testing.T) {
	t.Setenv("COMPLETION_POLICY", "")
	t.Setenv("PASS_THRESHOLD", "150")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for pass threshold above 100")
	}
}

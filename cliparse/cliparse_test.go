// cliparse/cliparse_test.go
package cliparse

import (
	"strings"
	"testing"
	"time"
)

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "file:env.db")
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("VIDEO_HOST", "vkvideo.ru")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:env.db" {
		t.Errorf("expected DATABASE_URL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("expected TOKEN_TTL 2h, got %v", cfg.TokenTTL)
	}
	if cfg.VideoHost != "vkvideo.ru" {
		t.Errorf("expected VIDEO_HOST from env, got %s", cfg.VideoHost)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_SECRET", "env-secret")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "--token-secret", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.TokenSecret != "s1" {
		t.Errorf("CLI should override env: expected s1, got %s", cfg.TokenSecret)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"-d", "file:test.db", "--token-secret", "s"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseSQLite {
		t.Errorf("expected sqlite by default, got %s", cfg.DatabaseType)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.ChatLimit != 500 {
		t.Errorf("expected chat limit 500, got %d", cfg.ChatLimit)
	}
	if cfg.VideoHost != "vk.com" {
		t.Errorf("expected vk.com, got %s", cfg.VideoHost)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing token secret",
			args:    []string{"-d", "file:test.db"},
			wantErr: "TOKEN_SECRET",
		},
		{
			name:    "postgres without url",
			args:    []string{"-t", "postgres", "--token-secret", "s"},
			wantErr: "database URL required",
		},
		{
			name:    "unknown database type",
			args:    []string{"-t", "mysql", "-d", "x", "--token-secret", "s"},
			wantErr: "unsupported DATABASE_TYPE",
		},
		{
			name:    "bad port",
			args:    []string{"-d", "file:test.db", "--token-secret", "s"},
			env:     map[string]string{"PORT": "99999"},
			wantErr: "invalid PORT",
		},
		{
			name:    "zero ttl",
			args:    []string{"-d", "file:test.db", "--token-secret", "s", "--token-ttl", "0s"},
			wantErr: "TOKEN_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := ParseFlags(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

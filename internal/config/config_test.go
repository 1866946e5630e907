package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{"valid duration", "30s", time.Minute, 30 * time.Second},
		{"invalid falls back to default", "bogus", time.Minute, time.Minute},
		{"unset falls back to default", "", time.Minute, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			}
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.want {
				t.Errorf("mustDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "a.example.com", []string{"a.example.com"}},
		{"spaces and quotes", ` "a.example.com" , 'b.example.com' `, []string{"a.example.com", "b.example.com"}},
		{"trailing comma", "a,b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitAndTrim() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PULSE_API_KEY", "s3cret")
	t.Setenv("PULSE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PULSE_REDIS_PASSWORD_REQUIRED", "false")
	t.Setenv("PULSE_KEEPALIVE_INTERVAL", "10m")

	cfg := Load()

	if cfg.APIKey != "s3cret" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.KeepaliveInterval != 10*time.Minute {
		t.Errorf("KeepaliveInterval = %v, want 10m", cfg.KeepaliveInterval)
	}
	if cfg.MaintenanceInterval != 0 {
		t.Errorf("MaintenanceInterval = %v, want 0 (disabled)", cfg.MaintenanceInterval)
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
}

func TestLoadPanicsWithoutPassword(t *testing.T) {
	t.Setenv("PULSE_API_KEY", "s3cret")
	t.Setenv("PULSE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PULSE_REDIS_PASSWORD_REQUIRED", "true")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic when a required password is missing")
		}
	}()
	Load()
}

func TestConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pulse.yaml")
	content := []byte(`
listen_port: ":9090"
keepalive_interval: 5m
allowed_cidrs:
  - 10.0.0.0/8
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PULSE_API_KEY", "s3cret")
	t.Setenv("PULSE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PULSE_REDIS_PASSWORD_REQUIRED", "false")
	t.Setenv("PULSE_CONFIG_FILE", path)

	cfg := Load()

	if cfg.ListenPort != ":9090" {
		t.Errorf("ListenPort = %q, want :9090 from overlay", cfg.ListenPort)
	}
	if cfg.KeepaliveInterval != 5*time.Minute {
		t.Errorf("KeepaliveInterval = %v, want 5m from overlay", cfg.KeepaliveInterval)
	}
	if len(cfg.AllowedCIDRS) != 1 || cfg.AllowedCIDRS[0] != "10.0.0.0/8" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	// Values absent from the overlay keep their env/default values.
	if cfg.APIKey != "s3cret" {
		t.Errorf("APIKey = %q, want env value", cfg.APIKey)
	}
}

func TestConfigFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pulse.yaml")
	if err := os.WriteFile(path, []byte("listen_port: [broken"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PULSE_API_KEY", "s3cret")
	t.Setenv("PULSE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PULSE_REDIS_PASSWORD_REQUIRED", "false")
	t.Setenv("PULSE_CONFIG_FILE", path)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic on an unparseable config file")
		}
	}()
	Load()
}

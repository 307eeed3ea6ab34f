package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"POLICY_FILE", "CONFIDENCE_THRESHOLD", "MIN_PUNCH_INTERVAL_MINUTES", "MATCH_TOLERANCE",
		"WORK_START_TIME", "WORK_END_TIME", "TIME_ZONE", "PERIODIC_REFRESH_SECONDS", "BACKEND", "ENCODING_STORE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Attendance.ConfidenceThreshold != 70 {
		t.Errorf("expected confidence threshold 70, got %v", cfg.Attendance.ConfidenceThreshold)
	}
	if cfg.Attendance.MinPunchInterval() != 5*time.Minute {
		t.Errorf("expected min punch interval 5m, got %v", cfg.Attendance.MinPunchInterval())
	}
	if cfg.Recognition.Tolerance != 0.6 {
		t.Errorf("expected tolerance 0.6, got %v", cfg.Recognition.Tolerance)
	}
	if cfg.Attendance.WorkStartTime != "09:00" || cfg.Attendance.WorkEndTime != "18:00" {
		t.Errorf("unexpected work hours %s-%s", cfg.Attendance.WorkStartTime, cfg.Attendance.WorkEndTime)
	}
	if cfg.Recognition.RefreshInterval() != time.Minute {
		t.Errorf("expected refresh interval 1m, got %v", cfg.Recognition.RefreshInterval())
	}
	if cfg.Attendance.TimeZone != "Asia/Kolkata" {
		t.Errorf("expected Asia/Kolkata, got %s", cfg.Attendance.TimeZone)
	}
	if cfg.Recognition.FrameStride != 2 {
		t.Errorf("expected frame stride 2, got %d", cfg.Recognition.FrameStride)
	}
	if cfg.Database.Backend != "postgres" || cfg.Encodings.Store != "file" {
		t.Errorf("unexpected backend/store %s/%s", cfg.Database.Backend, cfg.Encodings.Store)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POLICY_FILE", "")
	t.Setenv("CONFIDENCE_THRESHOLD", "80.5")
	t.Setenv("MIN_PUNCH_INTERVAL_MINUTES", "0")
	t.Setenv("MATCH_TOLERANCE", "0.5")
	t.Setenv("MANUAL_BYPASS_COOLDOWN", "true")
	t.Setenv("HNSW_MIN_ENCODINGS", "0")
	t.Setenv("BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Attendance.ConfidenceThreshold != 80.5 {
		t.Errorf("expected 80.5, got %v", cfg.Attendance.ConfidenceThreshold)
	}
	if cfg.Attendance.MinPunchIntervalMinutes != 0 {
		t.Errorf("expected 0, got %d", cfg.Attendance.MinPunchIntervalMinutes)
	}
	if cfg.Recognition.Tolerance != 0.5 {
		t.Errorf("expected 0.5, got %v", cfg.Recognition.Tolerance)
	}
	if !cfg.Attendance.ManualBypassCooldown {
		t.Error("expected manual bypass enabled")
	}
	if cfg.Recognition.HNSWMinEncodings != 0 {
		t.Errorf("expected hnsw disabled, got %d", cfg.Recognition.HNSWMinEncodings)
	}
}

func TestLoad_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "attendance:\n  work_start_time: \"08:30\"\nrecognition:\n  tolerance: 0.45\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POLICY_FILE", path)
	t.Setenv("WORK_START_TIME", "")
	t.Setenv("MATCH_TOLERANCE", "")
	t.Setenv("CONFIDENCE_THRESHOLD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Attendance.WorkStartTime != "08:30" {
		t.Errorf("expected 08:30 from policy file, got %s", cfg.Attendance.WorkStartTime)
	}
	if cfg.Recognition.Tolerance != 0.45 {
		t.Errorf("expected 0.45 from policy file, got %v", cfg.Recognition.Tolerance)
	}
	// Untouched keys keep the embedded defaults.
	if cfg.Attendance.ConfidenceThreshold != 70 {
		t.Errorf("expected default threshold 70, got %v", cfg.Attendance.ConfidenceThreshold)
	}
}

func TestLoad_PolicyFileMissing(t *testing.T) {
	t.Setenv("POLICY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing policy file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database:    DatabaseConfig{Backend: "memory"},
			Encodings:   EncodingsConfig{Store: "file"},
			Attendance:  AttendanceConfig{ConfidenceThreshold: 70, TimeZone: "UTC"},
			Recognition: RecognitionConfig{Tolerance: 0.6},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero tolerance", func(c *Config) { c.Recognition.Tolerance = 0 }, true},
		{"tolerance above one", func(c *Config) { c.Recognition.Tolerance = 1.2 }, true},
		{"threshold above 100", func(c *Config) { c.Attendance.ConfidenceThreshold = 101 }, true},
		{"bad time zone", func(c *Config) { c.Attendance.TimeZone = "Mars/Olympus" }, true},
		{"bad backend", func(c *Config) { c.Database.Backend = "sqlite" }, true},
		{"bad store", func(c *Config) { c.Encodings.Store = "s3" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "-3")
	if got := envInt("TEST_INT", 7); got != 7 {
		t.Errorf("envInt negative = %d, want default 7", got)
	}
	t.Setenv("TEST_FLOAT", "abc")
	if got := envFloat("TEST_FLOAT", 1.5); got != 1.5 {
		t.Errorf("envFloat invalid = %v, want default 1.5", got)
	}
	t.Setenv("TEST_BOOL", "yes")
	if got := envBool("TEST_BOOL", false); got {
		t.Error("envBool should fall back on unparsable value")
	}
}

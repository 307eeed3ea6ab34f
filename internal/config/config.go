package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database    DatabaseConfig
	Directory   DirectoryConfig
	Encodings   EncodingsConfig
	Extractor   ExtractorConfig
	Web         WebConfig
	Attendance  AttendanceConfig
	Recognition RecognitionConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Backend      string // "postgres" (default) or "memory"
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// DirectoryConfig points at the HR database that owns the employee records.
// When DSN is empty the employee table of the attendance database is used.
type DirectoryConfig struct {
	DSN string // MariaDB/MySQL DSN (e.g., hr:hr@tcp(mariadb:3306)/hr?parseTime=true)
}

type EncodingsConfig struct {
	Store string // "file" (default) or "postgres"
	Dir   string // root directory of the file store (default ./media)
}

type ExtractorConfig struct {
	URL     string // defaults to http://localhost:8000
	Timeout time.Duration
}

type WebConfig struct {
	JWTKey         string   // HMAC key for tenant bearer tokens; empty disables auth
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

// AttendanceConfig is the deduplication and summary policy.
type AttendanceConfig struct {
	ConfidenceThreshold     float64 `yaml:"confidence_threshold"`
	MinPunchIntervalMinutes int     `yaml:"min_punch_interval_minutes"`
	WorkStartTime           string  `yaml:"work_start_time"`
	WorkEndTime             string  `yaml:"work_end_time"`
	TimeZone                string  `yaml:"time_zone"`
	ManualBypassCooldown    bool    `yaml:"manual_bypass_cooldown"`
}

// RecognitionConfig tunes matching and the frame loop.
type RecognitionConfig struct {
	Tolerance              float64 `yaml:"tolerance"`
	EncodingDim            int     `yaml:"encoding_dim"`
	PeriodicRefreshSeconds int     `yaml:"periodic_refresh_seconds"`
	AttemptIntervalSeconds int     `yaml:"attempt_interval_seconds"`
	FrameStride            int     `yaml:"frame_stride"`
	CommitWorkers          int     `yaml:"commit_workers"`
	HNSWMinEncodings       int     `yaml:"hnsw_min_encodings"`
}

// PolicyFile is the yaml layout of defaults.yaml and POLICY_FILE.
type PolicyFile struct {
	Attendance  AttendanceConfig  `yaml:"attendance"`
	Recognition RecognitionConfig `yaml:"recognition"`
}

func (r RecognitionConfig) RefreshInterval() time.Duration {
	return time.Duration(r.PeriodicRefreshSeconds) * time.Second
}

func (r RecognitionConfig) AttemptInterval() time.Duration {
	return time.Duration(r.AttemptIntervalSeconds) * time.Second
}

func (a AttendanceConfig) MinPunchInterval() time.Duration {
	return time.Duration(a.MinPunchIntervalMinutes) * time.Minute
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegativeInt is envInt that also accepts zero (used for switches such as HNSW_MIN_ENCODINGS=0).
func envNonNegativeInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadPolicy returns the embedded defaults overlaid with the yaml file at path (if any).
func LoadPolicy(path string) (PolicyFile, error) {
	var policy PolicyFile
	if err := yaml.Unmarshal(defaultsYAML, &policy); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	if path == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	// Keys missing from the file keep their defaults.
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return policy, nil
}

func Load() (*Config, error) {
	policy, err := LoadPolicy(os.Getenv("POLICY_FILE"))
	if err != nil {
		return nil, err
	}
	a := policy.Attendance
	r := policy.Recognition

	cfg := &Config{
		Database: DatabaseConfig{
			Backend:      envString("BACKEND", "postgres"),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Directory: DirectoryConfig{
			DSN: os.Getenv("HR_DATABASE_DSN"),
		},
		Encodings: EncodingsConfig{
			Store: envString("ENCODING_STORE", "file"),
			Dir:   envString("ENCODINGS_DIR", "./media"),
		},
		Extractor: ExtractorConfig{
			URL:     envString("EXTRACTOR_URL", "http://localhost:8000"),
			Timeout: time.Duration(envInt("EXTRACTOR_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Web: WebConfig{
			JWTKey:         os.Getenv("JWT_KEY"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Attendance: AttendanceConfig{
			ConfidenceThreshold:     envFloat("CONFIDENCE_THRESHOLD", a.ConfidenceThreshold),
			MinPunchIntervalMinutes: envNonNegativeInt("MIN_PUNCH_INTERVAL_MINUTES", a.MinPunchIntervalMinutes),
			WorkStartTime:           envString("WORK_START_TIME", a.WorkStartTime),
			WorkEndTime:             envString("WORK_END_TIME", a.WorkEndTime),
			TimeZone:                envString("TIME_ZONE", a.TimeZone),
			ManualBypassCooldown:    envBool("MANUAL_BYPASS_COOLDOWN", a.ManualBypassCooldown),
		},
		Recognition: RecognitionConfig{
			Tolerance:              envFloat("MATCH_TOLERANCE", r.Tolerance),
			EncodingDim:            envInt("ENCODING_DIM", r.EncodingDim),
			PeriodicRefreshSeconds: envInt("PERIODIC_REFRESH_SECONDS", r.PeriodicRefreshSeconds),
			AttemptIntervalSeconds: envNonNegativeInt("RECOGNITION_ATTEMPT_INTERVAL_SECONDS", r.AttemptIntervalSeconds),
			FrameStride:            envInt("FRAME_STRIDE", r.FrameStride),
			CommitWorkers:          envInt("COMMIT_WORKERS", r.CommitWorkers),
			HNSWMinEncodings:       envNonNegativeInt("HNSW_MIN_ENCODINGS", r.HNSWMinEncodings),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise surface deep inside the pipeline.
func (c *Config) Validate() error {
	r := c.Recognition
	if r.Tolerance <= 0 || r.Tolerance > 1 {
		return fmt.Errorf("tolerance must be in (0, 1], got %v", r.Tolerance)
	}
	a := c.Attendance
	if a.ConfidenceThreshold < 0 || a.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be in [0, 100], got %v", a.ConfidenceThreshold)
	}
	if a.MinPunchIntervalMinutes < 0 {
		return fmt.Errorf("min punch interval must not be negative, got %d", a.MinPunchIntervalMinutes)
	}
	if _, err := time.LoadLocation(a.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", a.TimeZone, err)
	}
	switch strings.ToLower(c.Database.Backend) {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown backend %q (want postgres or memory)", c.Database.Backend)
	}
	switch strings.ToLower(c.Encodings.Store) {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown encoding store %q (want file or postgres)", c.Encodings.Store)
	}
	return nil
}

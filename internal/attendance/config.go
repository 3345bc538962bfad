package attendance

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultLogPath is the attendance log used when nothing else is configured.
const DefaultLogPath = "office_attendance.csv"

// Config holds environment-driven settings for the tracker.
type Config struct {
	Addr         string        `yaml:"addr"`
	LogPath      string        `yaml:"log_path"`
	ExportDir    string        `yaml:"export_dir"`
	TimeZone     string        `yaml:"time_zone"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// SubmitRatePerMinute throttles POST / per client address. Zero disables it.
	SubmitRatePerMinute int `yaml:"submit_rate_per_minute"`

	PDFEnabled      bool          `yaml:"pdf_enabled"`
	PDFChromiumPath string        `yaml:"pdf_chromium_path"`
	PDFTimeout      time.Duration `yaml:"pdf_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		LogPath:      DefaultLogPath,
		ExportDir:    os.TempDir(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		LogLevel:     "info",
		LogFormat:    "json",
		PDFTimeout:   15 * time.Second,
	}
}

// LoadConfig applies environment overrides on top of the defaults.
func LoadConfig() Config {
	return applyEnv(DefaultConfig())
}

// LoadConfigFile reads a YAML file over the defaults, then applies the
// environment on top of it. An empty path behaves like LoadConfig.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return applyEnv(cfg), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return applyEnv(cfg), nil
}

// Location resolves TimeZone; empty means the server's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func applyEnv(cfg Config) Config {
	cfg.Addr = getenv("ADDR", cfg.Addr)
	cfg.LogPath = getenv("ATTENDANCE_LOG_PATH", cfg.LogPath)
	cfg.ExportDir = getenv("EXPORT_DIR", cfg.ExportDir)
	cfg.TimeZone = getenv("TZ_NAME", cfg.TimeZone)
	cfg.ReadTimeout = getDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getenv("LOG_FILE", cfg.LogFile)
	cfg.SubmitRatePerMinute = getInt("SUBMIT_RATE_PER_MIN", cfg.SubmitRatePerMinute)
	cfg.PDFEnabled = getBool("PDF_ENABLED", cfg.PDFEnabled)
	cfg.PDFChromiumPath = getenv("PDF_CHROMIUM_PATH", cfg.PDFChromiumPath)
	cfg.PDFTimeout = getDuration("PDF_TIMEOUT", cfg.PDFTimeout)
	return cfg
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

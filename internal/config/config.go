// Package config provides configuration management for bunpeg-editor.
// Configuration is loaded from environment variables with sensible defaults;
// editor tuning can additionally come from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".bunpeg"

	DefaultPollInterval    = 1000 // milliseconds
	DefaultPollTimeout     = 600  // seconds
	DefaultPollMaxAttempts = 0    // unbounded

	// Environment variable names
	EnvAPIURL          = "BUNPEG_API_URL"
	EnvAPIToken        = "BUNPEG_API_TOKEN"
	EnvPort            = "BUNPEG_PORT"
	EnvLogLevel        = "BUNPEG_LOG_LEVEL"
	EnvDataDir         = "BUNPEG_DATA_DIR"
	EnvPollInterval    = "BUNPEG_POLL_INTERVAL_MS"
	EnvPollTimeout     = "BUNPEG_POLL_TIMEOUT_S"
	EnvPollMaxAttempts = "BUNPEG_POLL_MAX_ATTEMPTS"
	EnvOutputFormat    = "BUNPEG_OUTPUT_FORMAT"
	EnvConfigFile      = "BUNPEG_CONFIG_FILE"

	// Database filename
	DBFilename = "bunpeg.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	APIURL() string
	APIToken() string
	Offline() bool
	PollInterval() time.Duration
	PollTimeout() time.Duration
	PollMaxAttempts() int
	OutputFormat() string
	Editor() EditorConfig
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port            int
	logLevel        string
	dataDir         string
	apiURL          string
	apiToken        string
	pollInterval    time.Duration
	pollTimeout     time.Duration
	pollMaxAttempts int
	outputFormat    string
	editor          EditorConfig
	editorFile      string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		dataDir:         defaultDataDir(),
		pollInterval:    DefaultPollInterval * time.Millisecond,
		pollTimeout:     DefaultPollTimeout * time.Second,
		pollMaxAttempts: DefaultPollMaxAttempts,
		editor:          DefaultEditorConfig(),
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.apiURL = strings.TrimRight(os.Getenv(EnvAPIURL), "/")
	cfg.apiToken = os.Getenv(EnvAPIToken)
	cfg.outputFormat = strings.TrimPrefix(os.Getenv(EnvOutputFormat), ".")

	if v := os.Getenv(EnvPollInterval); v != "" {
		ms, err := positiveInt(EnvPollInterval, v)
		if err != nil {
			return nil, err
		}
		cfg.pollInterval = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv(EnvPollTimeout); v != "" {
		s, err := nonNegativeInt(EnvPollTimeout, v)
		if err != nil {
			return nil, err
		}
		cfg.pollTimeout = time.Duration(s) * time.Second
	}

	if v := os.Getenv(EnvPollMaxAttempts); v != "" {
		n, err := nonNegativeInt(EnvPollMaxAttempts, v)
		if err != nil {
			return nil, err
		}
		cfg.pollMaxAttempts = n
	}

	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = FindEditorFile(cfg.dataDir)
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvConfigFile, err)
	}
	if path != "" {
		editor, err := LoadEditorFile(path)
		if err != nil {
			return nil, err
		}
		cfg.editor = editor
		cfg.editorFile = path
	}

	return cfg, nil
}

func positiveInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return n, nil
}

func nonNegativeInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return n, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// APIURL is the media API base URL without a trailing slash.
func (c *EnvConfig) APIURL() string {
	return c.apiURL
}

func (c *EnvConfig) APIToken() string {
	return c.apiToken
}

// Offline reports whether no media API is configured; callers fall back to
// the in-memory stub.
func (c *EnvConfig) Offline() bool {
	return c.apiURL == ""
}

func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// PollTimeout is zero when polling is bounded only by the caller.
func (c *EnvConfig) PollTimeout() time.Duration {
	return c.pollTimeout
}

func (c *EnvConfig) PollMaxAttempts() int {
	return c.pollMaxAttempts
}

// OutputFormat is empty when outputs keep the source container.
func (c *EnvConfig) OutputFormat() string {
	return c.outputFormat
}

func (c *EnvConfig) Editor() EditorConfig {
	return c.editor
}

// EditorFile is the YAML file the editor settings came from, if any.
func (c *EnvConfig) EditorFile() string {
	return c.editorFile
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

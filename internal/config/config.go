package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultQuotaBytes matches the usual browser local storage allowance.
	DefaultQuotaBytes = 5 * 1024 * 1024

	DefaultWidth          = 800
	DefaultHeight         = 600
	DefaultAutoSaveDelay  = "2s"
	DefaultThumbnailWidth = 200
	DefaultExportScale    = 2
	DefaultJPEGQuality    = 92
)

// Config represents the main configuration for yd.
type Config struct {
	Author     string           `toml:"author"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Storage    StorageConfig    `toml:"storage"`
	Editor     EditorConfig     `toml:"editor"`
	Export     ExportConfig     `toml:"export"`
	Encryption EncryptionConfig `toml:"encryption"`
	Fonts      FontsConfig      `toml:"fonts"`
}

// StorageConfig selects the key-value backend holding the drawing library.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "sqlite", "redis", "s3" or "dynamodb"

	// QuotaBytes caps the total stored size. Zero means DefaultQuotaBytes,
	// a negative value disables the cap.
	QuotaBytes int64 `toml:"quota_bytes"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	Dir string `toml:"dir,omitempty"`

	// SQLite-specific fields (only used when Type == "sqlite")
	DataDir string `toml:"data_dir,omitempty"`

	// Redis-specific fields (only used when Type == "redis")
	RedisAddr   string `toml:"redis_addr,omitempty"`
	RedisPrefix string `toml:"redis_prefix,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// DynamoDB-specific fields (only used when Type == "dynamodb")
	DynamoDBTable    string `toml:"dynamodb_table,omitempty"`
	DynamoDBRegion   string `toml:"dynamodb_region,omitempty"`
	DynamoDBEndpoint string `toml:"dynamodb_endpoint,omitempty"`
}

// Quota returns the effective capacity in bytes, 0 meaning unlimited.
func (c StorageConfig) Quota() int64 {
	switch {
	case c.QuotaBytes < 0:
		return 0
	case c.QuotaBytes == 0:
		return DefaultQuotaBytes
	}
	return c.QuotaBytes
}

// EditorConfig holds interactive editing settings.
type EditorConfig struct {
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	AutoSaveDelay  string `toml:"autosave_delay"`  // Go duration
	HistoryLimit   int    `toml:"history_limit"`   // 0 keeps every entry
	ThumbnailWidth int    `toml:"thumbnail_width"` // preview width in pixels
}

// Delay parses AutoSaveDelay, falling back to the default when empty.
func (c EditorConfig) Delay() (time.Duration, error) {
	s := c.AutoSaveDelay
	if s == "" {
		s = DefaultAutoSaveDelay
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing autosave_delay: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("autosave_delay must be positive, got %s", s)
	}
	return d, nil
}

// ExportConfig holds defaults for `yd export`.
type ExportConfig struct {
	Format     string  `toml:"format"`     // "png", "jpeg" or "yrd"
	Background string  `toml:"background"` // "transparent" or "white"
	Scale      float64 `toml:"scale"`
	Quality    int     `toml:"quality"` // jpeg only, 1-100
}

// EncryptionConfig holds paths to the age key pair used for sealed exports.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FontsConfig points at a directory of extra font files.
type FontsConfig struct {
	Dir string `toml:"dir"`
}

// NewConfig creates a new Config with the provided values and defaults for
// everything else.
func NewConfig(author, baseDir string) *Config {
	return &Config{
		Author:  author,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Storage: StorageConfig{
			Type:       "sqlite",
			QuotaBytes: DefaultQuotaBytes,
			DataDir:    filepath.Join(baseDir, "db"),
		},
		Editor: EditorConfig{
			Width:          DefaultWidth,
			Height:         DefaultHeight,
			AutoSaveDelay:  DefaultAutoSaveDelay,
			ThumbnailWidth: DefaultThumbnailWidth,
		},
		Export: ExportConfig{
			Format:     "png",
			Background: "transparent",
			Scale:      DefaultExportScale,
			Quality:    DefaultJPEGQuality,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "yd.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "yd.key"),
		},
		Fonts: FontsConfig{
			Dir: filepath.Join(baseDir, "fonts"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

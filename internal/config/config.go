// Package config loads the media organizer configuration from TOML with
// environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener settings.
type Server struct {
	ListenAddr     string   `toml:"listen_addr"`
	StaticDir      string   `toml:"static_dir"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Media describes the on-disk layout of the media tree.
type Media struct {
	Root              string   `toml:"root"`
	DownloadsDir      string   `toml:"downloads_dir"`
	CategoriesDir     string   `toml:"categories_dir"`
	DefaultCategories []string `toml:"default_categories"`
	ImageExtensions   []string `toml:"image_extensions"`
	VideoExtensions   []string `toml:"video_extensions"`
}

// Watcher contains timing for the downloads guard and new-file detection.
type Watcher struct {
	FolderCheckSeconds int `toml:"folder_check_seconds"`
	SettleMillis       int `toml:"settle_millis"`
	PollMillis         int `toml:"poll_millis"`
}

// Rule sends downloads whose name contains Keyword into Category.
type Rule struct {
	Keyword  string `toml:"keyword" json:"keyword"`
	Category string `toml:"category" json:"category"`
}

// AutoSort contains keyword rules applied to the downloads directory.
type AutoSort struct {
	OnDetect bool   `toml:"on_detect"`
	Rules    []Rule `toml:"rules"`
}

// Opener overrides the platform file-manager command.
type Opener struct {
	Command string `toml:"command"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for the organizer.
type Config struct {
	Server   Server   `toml:"server"`
	Media    Media    `toml:"media"`
	Watcher  Watcher  `toml:"watcher"`
	AutoSort AutoSort `toml:"auto_sort"`
	Opener   Opener   `toml:"opener"`
	Logging  Logging  `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			ListenAddr:     DefaultListenAddr,
			AllowedOrigins: []string{"*"},
		},
		Media: Media{
			Root:              DefaultMediaRoot,
			DownloadsDir:      DefaultDownloadsDir,
			CategoriesDir:     DefaultCategoriesDir,
			DefaultCategories: append([]string(nil), DefaultCategories...),
			ImageExtensions:   append([]string(nil), DefaultImageExtensions...),
			VideoExtensions:   append([]string(nil), DefaultVideoExtensions...),
		},
		Watcher: Watcher{
			FolderCheckSeconds: DefaultFolderCheckSeconds,
			SettleMillis:       DefaultSettleMillis,
			PollMillis:         DefaultPollMillis,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shorts/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; defaults and environment overrides still apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("shorts.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) applyEnv() {
	c.Server.ListenAddr = envOr("SHORTS_LISTEN_ADDR", c.Server.ListenAddr)
	c.Media.Root = envOr("SHORTS_MEDIA_ROOT", c.Media.Root)
	c.Logging.Level = envOr("SHORTS_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envOr("SHORTS_LOG_FORMAT", c.Logging.Format)
}

func (c *Config) normalize() error {
	c.Server.ListenAddr = strings.TrimSpace(c.Server.ListenAddr)
	c.Media.DownloadsDir = strings.TrimSpace(c.Media.DownloadsDir)
	c.Media.CategoriesDir = strings.TrimSpace(c.Media.CategoriesDir)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	root, err := expandPath(strings.TrimSpace(c.Media.Root))
	if err != nil {
		return fmt.Errorf("media root: %w", err)
	}
	c.Media.Root = root

	if strings.TrimSpace(c.Server.StaticDir) != "" {
		static, err := expandPath(strings.TrimSpace(c.Server.StaticDir))
		if err != nil {
			return fmt.Errorf("static dir: %w", err)
		}
		c.Server.StaticDir = static
	}

	c.Media.ImageExtensions = normalizeExtensions(c.Media.ImageExtensions)
	c.Media.VideoExtensions = normalizeExtensions(c.Media.VideoExtensions)

	for i := range c.AutoSort.Rules {
		c.AutoSort.Rules[i].Keyword = strings.TrimSpace(c.AutoSort.Rules[i].Keyword)
		c.AutoSort.Rules[i].Category = strings.TrimSpace(c.AutoSort.Rules[i].Category)
	}
	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// FolderCheckInterval returns the downloads guard period.
func (c *Config) FolderCheckInterval() time.Duration {
	return time.Duration(c.Watcher.FolderCheckSeconds) * time.Second
}

// SettleDuration returns how long a new file must stay unchanged before it
// is announced.
func (c *Config) SettleDuration() time.Duration {
	return time.Duration(c.Watcher.SettleMillis) * time.Millisecond
}

// PollInterval returns how often pending files are re-checked.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watcher.PollMillis) * time.Millisecond
}

// DownloadsPath returns the absolute downloads directory.
func (c *Config) DownloadsPath() string {
	return filepath.Join(c.Media.Root, c.Media.DownloadsDir)
}

// CategoriesPath returns the absolute categories directory.
func (c *Config) CategoriesPath() string {
	return filepath.Join(c.Media.Root, c.Media.CategoriesDir)
}

// LockPath returns the single-instance lock file inside the media root.
func (c *Config) LockPath() string {
	return filepath.Join(c.Media.Root, LockFileName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for the CLI.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

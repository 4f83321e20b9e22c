package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shorts.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "shorts", "config.toml"), resolved)

	assert.Equal(t, ":3000", cfg.Server.ListenAddr)
	assert.True(t, filepath.IsAbs(cfg.Media.Root))
	assert.Equal(t, "다운로드", cfg.Media.DownloadsDir)
	assert.Equal(t, "카테고리", cfg.Media.CategoriesDir)
	assert.Len(t, cfg.Media.DefaultCategories, 12)
	assert.Equal(t, 5*time.Second, cfg.FolderCheckInterval())
	assert.Equal(t, filepath.Join(cfg.Media.Root, "다운로드"), cfg.DownloadsPath())
	assert.Equal(t, filepath.Join(cfg.Media.Root, "카테고리"), cfg.CategoriesPath())
}

func TestLoadParsesFileAndNormalizesExtensions(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, `
[server]
listen_addr = "127.0.0.1:4000"

[media]
root = "`+filepath.ToSlash(root)+`"
downloads_dir = "inbox"
categories_dir = "sorted"
image_extensions = ["JPG", ".png", "jpg"]
video_extensions = ["mp4"]

[watcher]
folder_check_seconds = 1
settle_millis = 250
poll_millis = 20

[auto_sort]
on_detect = true

[[auto_sort.rules]]
keyword = " travel "
category = "여행"
`)

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.ListenAddr)
	assert.Equal(t, root, cfg.Media.Root)
	assert.Equal(t, []string{".jpg", ".png"}, cfg.Media.ImageExtensions)
	assert.Equal(t, []string{".mp4"}, cfg.Media.VideoExtensions)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDuration())
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval())
	assert.True(t, cfg.AutoSort.OnDetect)
	require.Len(t, cfg.AutoSort.Rules, 1)
	assert.Equal(t, config.Rule{Keyword: "travel", Category: "여행"}, cfg.AutoSort.Rules[0])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, "[server]\nlisten_addr = \":5000\"\n")
	t.Setenv("SHORTS_LISTEN_ADDR", ":6000")
	t.Setenv("SHORTS_MEDIA_ROOT", root)
	t.Setenv("SHORTS_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Server.ListenAddr)
	assert.Equal(t, root, cfg.Media.Root)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[server]\nlisten_port = 3000\n")
	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"empty listen":       func(c *config.Config) { c.Server.ListenAddr = "" },
		"nested downloads":   func(c *config.Config) { c.Media.DownloadsDir = "a/b" },
		"dot categories":     func(c *config.Config) { c.Media.CategoriesDir = ".." },
		"same dirs":          func(c *config.Config) { c.Media.CategoriesDir = c.Media.DownloadsDir },
		"overlap extension":  func(c *config.Config) { c.Media.VideoExtensions = append(c.Media.VideoExtensions, ".gif") },
		"no extensions":      func(c *config.Config) { c.Media.ImageExtensions, c.Media.VideoExtensions = nil, nil },
		"zero interval":      func(c *config.Config) { c.Watcher.FolderCheckSeconds = 0 },
		"zero settle":        func(c *config.Config) { c.Watcher.SettleMillis = 0 },
		"empty rule keyword": func(c *config.Config) { c.AutoSort.Rules = []config.Rule{{Category: "여행"}} },
		"rule traversal":     func(c *config.Config) { c.AutoSort.Rules = []config.Rule{{Keyword: "x", Category: "../etc"}} },
		"bad format":         func(c *config.Config) { c.Logging.Format = "xml" },
		"bad level":          func(c *config.Config) { c.Logging.Level = "trace" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded config.Config
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, ":3000", decoded.Server.ListenAddr)

	t.Setenv("HOME", t.TempDir())
	_, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
}

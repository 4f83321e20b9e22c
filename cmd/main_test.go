package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shorts.toml")
	content := "[media]\nroot = '" + root + "'\ndefault_categories = ['여행']\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[media]")

	_, err = runCLI(t, "config", "init", "--path", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCLI(t, "config", "init", "--path", target, "--overwrite")
	require.NoError(t, err)
}

func TestMissingExplicitConfigFails(t *testing.T) {
	_, err := runCLI(t, "-c", filepath.Join(t.TempDir(), "absent.toml"), "categories")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCategoriesAndDownloadsCommands(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "카테고리", "여행"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "다운로드"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "카테고리", "여행", "a.mp4"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "다운로드", "big.mp4"), make([]byte, 2048), 0o644))
	cfgPath := writeConfig(t, root)

	out, err := runCLI(t, "-c", cfgPath, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "여행")
	assert.Contains(t, out, "Files")

	out, err = runCLI(t, "-c", cfgPath, "downloads")
	require.NoError(t, err)
	assert.Contains(t, out, "big.mp4")
	assert.Contains(t, out, "2.0 KiB")

	out, err = runCLI(t, "-c", cfgPath, "downloads", "--category", "여행")
	require.NoError(t, err)
	assert.Contains(t, out, "a.mp4")
	assert.NotContains(t, out, "big.mp4")
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(categoryColumns, [][]string{
		{"여행", "12", "/m/카테고리/여행"},
		{"음식"},
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "CATEGORY")
	assert.Contains(t, lines[3], "12 │")
	assert.Contains(t, lines[4], "음식")
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr must not be empty")
	}
	if c.Media.Root == "" {
		return errors.New("media.root must not be empty")
	}
	if err := validateDirName("media.downloads_dir", c.Media.DownloadsDir); err != nil {
		return err
	}
	if err := validateDirName("media.categories_dir", c.Media.CategoriesDir); err != nil {
		return err
	}
	if c.Media.DownloadsDir == c.Media.CategoriesDir {
		return errors.New("media.downloads_dir and media.categories_dir must differ")
	}
	for _, name := range c.Media.DefaultCategories {
		if err := validateDirName("media.default_categories", name); err != nil {
			return err
		}
	}
	if len(c.Media.ImageExtensions) == 0 && len(c.Media.VideoExtensions) == 0 {
		return errors.New("at least one image or video extension is required")
	}
	images := make(map[string]struct{}, len(c.Media.ImageExtensions))
	for _, ext := range c.Media.ImageExtensions {
		images[ext] = struct{}{}
	}
	for _, ext := range c.Media.VideoExtensions {
		if _, ok := images[ext]; ok {
			return fmt.Errorf("extension %s is listed as both image and video", ext)
		}
	}

	if c.Watcher.FolderCheckSeconds <= 0 {
		return errors.New("watcher.folder_check_seconds must be positive")
	}
	if c.Watcher.SettleMillis <= 0 {
		return errors.New("watcher.settle_millis must be positive")
	}
	if c.Watcher.PollMillis <= 0 {
		return errors.New("watcher.poll_millis must be positive")
	}

	for i, rule := range c.AutoSort.Rules {
		if rule.Keyword == "" {
			return fmt.Errorf("auto_sort.rules[%d]: keyword must not be empty", i)
		}
		if err := validateDirName(fmt.Sprintf("auto_sort.rules[%d].category", i), rule.Category); err != nil {
			return err
		}
	}

	switch c.Logging.Format {
	case "auto", "json", "console":
	default:
		return fmt.Errorf("logging.format must be auto, json, or console (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func validateDirName(field, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%s must not be empty", field)
	case name == "." || name == "..":
		return fmt.Errorf("%s must not be %q", field, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%s must be a single directory name (got %q)", field, name)
	}
	return nil
}

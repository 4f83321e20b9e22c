package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"shorts/internal/config"
	"shorts/internal/logging"
	"shorts/internal/metrics"
	"shorts/internal/models"
	"shorts/internal/storage"
)

// Organizer sorts media files from the downloads directory into category
// directories. The filesystem is the only state; every call re-reads it.
type Organizer struct {
	store         storage.StorageProvider
	downloadsDir  string
	categoriesDir string
	defaults      []string
	kinds         map[string]models.MediaKind

	rules            []config.Rule
	autoSortOnDetect bool

	folderCheckInterval time.Duration
	pollInterval        time.Duration
	pending             *settleTracker

	guardMu  sync.Mutex
	watchMu  sync.Mutex
	watcher  *fsnotify.Watcher
	returned *recentNames

	cbMu          sync.RWMutex
	eventCallback func(models.Event)
}

// Creates a new Organizer over store using the media and watcher settings in cfg.
func NewOrganizer(store storage.StorageProvider, cfg *config.Config) (*Organizer, error) {
	rules := make([]config.Rule, 0, len(cfg.AutoSort.Rules))
	for _, rule := range cfg.AutoSort.Rules {
		category, err := NormalizeName(rule.Category)
		if err != nil {
			return nil, fmt.Errorf("auto-sort rule %q: %w", rule.Keyword, err)
		}
		rules = append(rules, config.Rule{Keyword: rule.Keyword, Category: category})
	}
	defaults := make([]string, 0, len(cfg.Media.DefaultCategories))
	for _, name := range cfg.Media.DefaultCategories {
		normalized, err := NormalizeName(name)
		if err != nil {
			return nil, fmt.Errorf("default category: %w", err)
		}
		defaults = append(defaults, normalized)
	}

	return &Organizer{
		store:               store,
		downloadsDir:        cfg.Media.DownloadsDir,
		categoriesDir:       cfg.Media.CategoriesDir,
		defaults:            defaults,
		kinds:               buildKinds(cfg.Media.ImageExtensions, cfg.Media.VideoExtensions),
		rules:               rules,
		autoSortOnDetect:    cfg.AutoSort.OnDetect,
		folderCheckInterval: cfg.FolderCheckInterval(),
		pollInterval:        cfg.PollInterval(),
		pending:             newSettleTracker(cfg.SettleDuration()),
		returned:            newRecentNames(cfg.SettleDuration() + returnedGrace),
	}, nil
}

// Sets a callback function to be called for every broadcast event.
func (o *Organizer) SetEventCallback(callback func(models.Event)) {
	o.cbMu.Lock()
	o.eventCallback = callback
	o.cbMu.Unlock()
}

func (o *Organizer) emit(name string, data any) {
	o.cbMu.RLock()
	callback := o.eventCallback
	o.cbMu.RUnlock()
	if callback == nil {
		return
	}
	callback(models.Event{Name: name, Data: data, Timestamp: time.Now()})
}

// Run watches the downloads directory and guards its existence until ctx is
// cancelled.
func (o *Organizer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	o.watchMu.Lock()
	o.watcher = watcher
	o.watchMu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.runFolderGuard(ctx)
	}()

	err = o.startWatcher(ctx)

	wg.Wait()
	o.watchMu.Lock()
	o.watcher = nil
	o.watchMu.Unlock()
	if closeErr := watcher.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close watcher: %w", closeErr)
	}
	return err
}

// DownloadsPath returns the absolute downloads directory.
func (o *Organizer) DownloadsPath() string {
	p, _ := o.store.AbsPath(o.downloadsDir)
	return p
}

// CategoriesPath returns the absolute categories directory.
func (o *Organizer) CategoriesPath() string {
	p, _ := o.store.AbsPath(o.categoriesDir)
	return p
}

// BasePath returns the absolute media root.
func (o *Organizer) BasePath() string {
	return o.store.GetPath()
}

// CategoryPath returns the absolute directory of an existing category.
func (o *Organizer) CategoryPath(name string) (string, error) {
	rel, err := o.existingCategory(name)
	if err != nil {
		return "", err
	}
	return o.store.AbsPath(rel)
}

// ListCategories returns every category directory with its file count.
func (o *Organizer) ListCategories() ([]models.Category, error) {
	entries, err := o.store.ReadDir(o.categoriesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]models.Category, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir || isHidden(entry.Name) {
			continue
		}
		files, err := o.store.ReadDir(entry.RelativePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list category %s: %w", entry.Name, err)
		}
		count := 0
		for _, f := range files {
			if f.IsRegular && !isHidden(f.Name) {
				count++
			}
		}
		abs, err := o.store.AbsPath(entry.RelativePath)
		if err != nil {
			return nil, err
		}
		categories = append(categories, models.Category{
			Name:      entry.Name,
			FileCount: count,
			Path:      abs,
		})
	}
	return categories, nil
}

// CreateCategory creates the category directory. Creating an existing
// category is a no-op; created reports whether the directory was new.
func (o *Organizer) CreateCategory(name string) (normalized string, created bool, err error) {
	normalized, err = NormalizeName(name)
	if err != nil {
		return "", false, err
	}
	created, err = o.store.EnsureDir(path.Join(o.categoriesDir, normalized))
	metrics.RecordCategoryOp("create", err == nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create category %s: %w", normalized, err)
	}
	if created {
		logging.Info("category created", zap.String("category", normalized))
	}
	return normalized, created, nil
}

// DeleteCategory moves every entry of the category back into downloads and
// removes the emptied directory. It stops at the first failure and does not
// undo the moves already made; moved reports how many entries were relocated.
func (o *Organizer) DeleteCategory(name string) (moved int, err error) {
	defer func() {
		metrics.RecordCategoryOp("delete", err == nil)
		metrics.RecordRelocations(moved)
	}()

	rel, err := o.existingCategory(name)
	if err != nil {
		return 0, err
	}
	if _, err := o.EnsureDownloadFolder(); err != nil {
		return 0, err
	}

	entries, err := o.store.ReadDir(rel)
	if err != nil {
		return 0, fmt.Errorf("failed to list category %s: %w", name, err)
	}
	for _, entry := range entries {
		target, err := o.relocate(entry.RelativePath, o.downloadsDir, entry.Name)
		if err != nil {
			logging.Error("category deletion stopped",
				zap.String("category", name),
				zap.Int("moved", moved),
				zap.Int("total", len(entries)),
				zap.Error(err))
			return moved, fmt.Errorf("category %s: moved %d of %d entries before failure: %w", name, moved, len(entries), err)
		}
		if target != entry.Name {
			logging.Info("renamed on return to downloads",
				zap.String("from", entry.Name),
				zap.String("to", target))
		}
		moved++
	}

	if err := o.store.RemoveDir(rel); err != nil {
		return moved, fmt.Errorf("failed to remove category %s: %w", name, err)
	}
	logging.Info("category deleted", zap.String("category", path.Base(rel)), zap.Int("returned", moved))
	return moved, nil
}

// ListDownloads returns the media files waiting in the downloads directory.
func (o *Organizer) ListDownloads() ([]models.MediaFile, error) {
	return o.listMedia(o.downloadsDir, o.downloadsDir)
}

// ListCategoryFiles returns the media files of one category.
func (o *Organizer) ListCategoryFiles(name string) ([]models.MediaFile, error) {
	rel, err := o.existingCategory(name)
	if err != nil {
		return nil, err
	}
	return o.listMedia(rel, o.categoriesDir, path.Base(rel))
}

func (o *Organizer) listMedia(rel string, urlSegments ...string) ([]models.MediaFile, error) {
	entries, err := o.store.ReadDir(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", rel, err)
	}
	files := make([]models.MediaFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsRegular || isHidden(entry.Name) {
			continue
		}
		kind, ok := o.kindOf(entry.Name)
		if !ok {
			continue
		}
		files = append(files, models.MediaFile{
			Name:     entry.Name,
			Type:     kind,
			Size:     entry.Size,
			Modified: entry.ModTime,
			Path:     mediaURL(append(append([]string(nil), urlSegments...), entry.Name)...),
		})
	}
	return files, nil
}

// MoveFile renames a file from downloads into category, creating the
// category when absent, and broadcasts fileMoved.
func (o *Organizer) MoveFile(fileName, category string) (err error) {
	defer func() { metrics.RecordFileMove(err == nil) }()

	if err := validateName(fileName); err != nil {
		return err
	}
	category, err = NormalizeName(category)
	if err != nil {
		return err
	}
	if _, err := o.EnsureDownloadFolder(); err != nil {
		return err
	}

	src := path.Join(o.downloadsDir, fileName)
	meta, err := o.store.GetMetadata(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s is not in downloads", ErrNotFound, fileName)
		}
		return err
	}
	if !meta.IsRegular {
		return fmt.Errorf("%w: %s is not a file", ErrNotFound, fileName)
	}

	categoryRel := path.Join(o.categoriesDir, category)
	if _, err := o.store.EnsureDir(categoryRel); err != nil {
		return fmt.Errorf("failed to prepare category %s: %w", category, err)
	}
	if err := o.store.Rename(src, path.Join(categoryRel, fileName)); err != nil {
		switch {
		case errors.Is(err, storage.ErrDestinationExists):
			return fmt.Errorf("%w: %s in category %s", ErrConflict, fileName, category)
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: %s is not in downloads", ErrNotFound, fileName)
		}
		return err
	}

	logging.Info("file moved", zap.String("file", fileName), zap.String("category", category))
	o.emit(models.EventFileMoved, models.FileMovedData{FileName: fileName, Category: category})
	return nil
}

// existingCategory validates name and returns its relative directory.
func (o *Organizer) existingCategory(name string) (string, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return "", err
	}
	rel := path.Join(o.categoriesDir, normalized)
	meta, err := o.store.GetMetadata(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: category %s", ErrNotFound, normalized)
		}
		return "", err
	}
	if !meta.IsDir {
		return "", fmt.Errorf("%w: category %s", ErrNotFound, normalized)
	}
	return rel, nil
}

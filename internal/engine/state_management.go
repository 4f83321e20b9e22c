package engine

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"shorts/internal/logging"
	"shorts/internal/metrics"
	"shorts/internal/models"
)

// Initialize creates the media root, the downloads and categories folders, and
// the default categories.
func (o *Organizer) Initialize() error {
	for _, rel := range []string{"", o.downloadsDir, o.categoriesDir} {
		if _, err := o.store.EnsureDir(rel); err != nil {
			return fmt.Errorf("failed to initialize media tree: %w", err)
		}
	}
	created := 0
	for _, name := range o.defaults {
		ok, err := o.store.EnsureDir(path.Join(o.categoriesDir, name))
		if err != nil {
			return fmt.Errorf("failed to create default category %s: %w", name, err)
		}
		if ok {
			created++
		}
	}
	logging.Info("media tree ready",
		zap.String("root", o.BasePath()),
		zap.Int("default_categories_created", created))
	return nil
}

// EnsureDownloadFolder creates the downloads folder when missing and reports
// whether it did.
func (o *Organizer) EnsureDownloadFolder() (bool, error) {
	created, err := o.store.EnsureDir(o.downloadsDir)
	if err != nil {
		return false, fmt.Errorf("failed to ensure download folder: %w", err)
	}
	if created {
		o.rewatchDownloads()
	}
	return created, nil
}

// CreateDownloadFolder ensures the downloads folder and always broadcasts
// downloadFolderCreated.
func (o *Organizer) CreateDownloadFolder() (string, error) {
	if _, err := o.EnsureDownloadFolder(); err != nil {
		return "", err
	}
	p := o.DownloadsPath()
	o.emit(models.EventDownloadFolderCreated, models.FolderData{
		Message: "다운로드 폴더가 생성되었습니다.",
		Path:    p,
	})
	return p, nil
}

// FolderStatus reports which parts of the media tree exist.
func (o *Organizer) FolderStatus() (models.FolderStatus, error) {
	status := models.FolderStatus{Categories: []string{}}

	var err error
	if status.BaseFolder, err = o.store.Exists(""); err != nil {
		return status, err
	}
	if status.DownloadFolder, err = o.isDir(o.downloadsDir); err != nil {
		return status, err
	}
	if status.CategoriesFolder, err = o.isDir(o.categoriesDir); err != nil {
		return status, err
	}
	if !status.CategoriesFolder {
		return status, nil
	}

	entries, err := o.store.ReadDir(o.categoriesDir)
	if err != nil {
		return status, fmt.Errorf("failed to list categories: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir && !isHidden(entry.Name) {
			status.Categories = append(status.Categories, entry.Name)
		}
	}
	return status, nil
}

func (o *Organizer) isDir(rel string) (bool, error) {
	ok, err := o.store.Exists(rel)
	if err != nil || !ok {
		return false, err
	}
	meta, err := o.store.GetMetadata(rel)
	if err != nil {
		return false, err
	}
	return meta.IsDir, nil
}

// checkDownloadFolder recreates the downloads folder if it was removed and
// announces the recreation once. A folder that was replaced outside the
// process is watched again without an announcement.
func (o *Organizer) checkDownloadFolder() {
	o.guardMu.Lock()
	defer o.guardMu.Unlock()

	created, err := o.EnsureDownloadFolder()
	if err != nil {
		logging.Error("download folder check failed", zap.Error(err))
		return
	}
	if !created {
		if !o.watchingDownloads() {
			logging.Warn("download folder was replaced, watching it again", zap.String("path", o.DownloadsPath()))
			o.rewatchDownloads()
		}
		return
	}

	p := o.DownloadsPath()
	logging.Warn("download folder was missing and has been recreated", zap.String("path", p))
	metrics.RecordFolderRecreated()
	o.emit(models.EventDownloadFolderRecreated, models.FolderData{
		Message: "다운로드 폴더가 재생성되었습니다.",
		Path:    p,
	})
}

// runFolderGuard checks the downloads folder immediately and then on every
// folder check interval until ctx is done.
func (o *Organizer) runFolderGuard(ctx context.Context) {
	o.checkDownloadFolder()

	ticker := time.NewTicker(o.folderCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.checkDownloadFolder()
		}
	}
}

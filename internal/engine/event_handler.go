package engine

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"shorts/internal/logging"
	"shorts/internal/metrics"
	"shorts/internal/models"
)

// Starts the watcher loop on the downloads folder. Blocks until ctx is done
// or the watcher channels close.
func (o *Organizer) startWatcher(ctx context.Context) error {
	o.rewatchDownloads()

	o.watchMu.Lock()
	watcher := o.watcher
	o.watchMu.Unlock()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			o.handleEvent(event, time.Now())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("watcher error", zap.Error(err))
		case now := <-ticker.C:
			o.flushSettled(now)
		}
	}
}

// rewatchDownloads (re)adds the downloads folder to the watcher. A removed
// directory loses its watch, so this runs after every recreation.
func (o *Organizer) rewatchDownloads() {
	o.watchMu.Lock()
	defer o.watchMu.Unlock()
	if o.watcher == nil {
		return
	}
	p := o.DownloadsPath()
	if err := o.watcher.Add(p); err != nil {
		logging.Warn("failed to watch download folder", zap.String("path", p), zap.Error(err))
		return
	}
	logging.Debug("watching download folder", zap.String("path", p))
}

// watchingDownloads reports whether the watcher still holds the downloads
// folder. The kernel drops the watch when the directory is removed.
func (o *Organizer) watchingDownloads() bool {
	o.watchMu.Lock()
	defer o.watchMu.Unlock()
	if o.watcher == nil {
		return true
	}
	return slices.Contains(o.watcher.WatchList(), o.DownloadsPath())
}

// Processes a file system event from the downloads folder.
func (o *Organizer) handleEvent(event fsnotify.Event, now time.Time) {
	if event.Name == o.DownloadsPath() {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			o.checkDownloadFolder()
		}
		return
	}

	name := filepath.Base(event.Name)
	if filepath.Dir(event.Name) != o.DownloadsPath() || isHidden(name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		o.pending.forget(name)
	case event.Has(fsnotify.Create):
		o.pending.touch(name, now)
	case event.Has(fsnotify.Write):
		// Polling catches size changes; writes only keep a pending file waiting.
		if o.pending.has(name) {
			o.pending.touch(name, now)
		}
	}
}

// flushSettled stats every pending file and announces those whose size and
// mtime stayed unchanged for the settle window.
func (o *Organizer) flushSettled(now time.Time) {
	if o.pending.len() == 0 {
		return
	}
	sizes := make(map[string]int64)
	for _, name := range o.pending.names() {
		meta, err := o.store.GetMetadata(path.Join(o.downloadsDir, name))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Warn("failed to stat pending file", zap.String("file", name), zap.Error(err))
			}
			o.pending.forget(name)
			continue
		}
		if !meta.IsRegular {
			o.pending.forget(name)
			continue
		}
		o.pending.observe(name, meta.Size, meta.ModTime, now)
		sizes[name] = meta.Size
	}
	for _, name := range o.pending.due(now) {
		o.pending.forget(name)
		o.announce(name, sizes[name])
	}
}

// announce broadcasts newFileDetected and applies auto-sort when enabled.
func (o *Organizer) announce(name string, size int64) {
	abs := filepath.Join(o.DownloadsPath(), name)
	logging.Info("new file detected",
		zap.String("file", name),
		zap.String("size", humanize.IBytes(uint64(size))))
	metrics.RecordNewFile()
	o.emit(models.EventNewFileDetected, models.NewFileData{FileName: name, FilePath: abs})

	if !o.autoSortOnDetect {
		return
	}
	if o.returned.take(name, time.Now()) {
		logging.Debug("skipping auto-sort for file returned from a deleted category", zap.String("file", name))
		return
	}
	if _, ok := o.kindOf(name); !ok {
		return
	}
	rule, ok := o.MatchRule(name)
	if !ok {
		return
	}
	err := o.MoveFile(name, rule.Category)
	metrics.RecordAutoSortMove(err == nil)
	if err != nil {
		logging.Warn("auto-sort on detect failed",
			zap.String("file", name),
			zap.String("category", rule.Category),
			zap.Error(err))
	}
}

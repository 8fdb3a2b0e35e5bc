package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vaultlens/internal/storage"
)

// Watcher event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

type watcher struct {
	db     NoteIndex
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

func (w *watcher) emit(kind, rel string) {
	w.logger.Debug("watcher: "+kind, slog.String("path", rel))
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

// Watch runs an fsnotify watcher on the vault root and keeps the link index
// in step with the files until ctx is cancelled. cb (if non-nil) is called
// after each successful index mutation.
//
// Directories created at runtime are added to the watch list. Renames delete
// the old entry at once and schedule a debounced reconciliation pass, since
// fsnotify reports only the old name.
func Watch(ctx context.Context, db NoteIndex, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, vaultRoot); err != nil {
		return err
	}

	w := &watcher{db: db, store: store, root: vaultRoot, logger: logger, cb: cb}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	defer func() {
		if reconcileTimer != nil {
			reconcileTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handle(fw, ev) {
				continue
			}
			if reconcileTimer == nil {
				reconcileTimer = time.NewTimer(reconcileDelay)
				reconcileCh = reconcileTimer.C
			} else {
				reconcileTimer.Reset(reconcileDelay)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle applies one fsnotify event and reports whether a reconciliation
// pass should be scheduled.
func (w *watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if isHidden(filepath.Base(ev.Name)) {
				return false
			}
			if err := addDirsRecursive(fw, ev.Name); err != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			w.indexDir(ev.Name)
			return false
		}
	}

	if isHidden(filepath.Base(ev.Name)) {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(ev.Name, ".md") {
		return w.attachment(ev, rel)
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := EventUpdated
		if ev.Op&fsnotify.Create != 0 {
			kind = EventCreated
		}
		if w.index(rel) {
			w.emit(kind, rel)
		}
	case ev.Op&fsnotify.Remove != 0:
		w.remove(rel)
	case ev.Op&fsnotify.Rename != 0:
		w.remove(rel)
		return true
	}
	return false
}

// attachment tracks a non-Markdown file so links to it keep resolving.
func (w *watcher) attachment(ev fsnotify.Event, rel string) bool {
	switch {
	case ev.Op&fsnotify.Create != 0:
		if err := w.db.UpsertAttachment(rel); err != nil {
			w.logger.Warn("watcher: attachment add failed", slog.String("path", rel), slog.String("error", err.Error()))
			return false
		}
		w.emit(EventCreated, rel)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := w.db.DeleteAttachment(rel); err != nil {
			w.logger.Warn("watcher: attachment delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return false
		}
		w.emit(EventDeleted, rel)
		return ev.Op&fsnotify.Rename != 0
	}
	return false
}

// index parses and stores rel. Unchanged content is skipped and reports false.
func (w *watcher) index(rel string) bool {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	if cs, err := w.db.GetChecksum(rel); err == nil && cs == storage.Checksum(data) {
		return false
	}
	if err := indexFile(w.db, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (w *watcher) remove(rel string) {
	if err := w.db.DeleteNote(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.emit(EventDeleted, rel)
}

// reconcile removes index entries whose files vanished and indexes files
// that are new or changed on disk.
func (w *watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}
	if attachments, err := w.store.ListAttachments(); err != nil {
		w.logger.Warn("reconcile: list attachments failed", slog.String("error", err.Error()))
	} else if err := w.db.ReplaceAttachments(attachments); err != nil {
		w.logger.Warn("reconcile: attachments failed", slog.String("error", err.Error()))
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		if w.index(p) {
			w.emit(EventCreated, p)
		}
	}
}

// indexDir indexes the files found in a newly created directory.
func (w *watcher) indexDir(dirPath string) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || isHidden(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasSuffix(p, ".md") {
			w.attachment(fsnotify.Event{Name: p, Op: fsnotify.Create}, rel)
			return nil
		}
		if w.index(rel) {
			w.emit(EventCreated, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

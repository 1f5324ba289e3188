// Package watcher keeps the cache honest when content files change on disk
// outside the manager (an editor, a git pull, a sync tool).
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/schema"
)

// EventCallback is called after a watcher-driven cache invalidation.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, contentType, campaignID, slug string)

// Watch starts an fsnotify watcher on the content root and processes file
// change events until ctx is cancelled. Each event that maps to a known
// (campaign, content type, slug) invalidates the item and list caches and
// calls cb (if non-nil).
//
// New directories created at runtime are automatically added to the watch
// list. Renames invalidate the old path only; the new path arrives as a
// separate Create event when it stays inside a watched directory.
func Watch(ctx context.Context, c *cache.Cache, campaigns *campaign.Registry, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if addNewDir(w, absPath, logger) {
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			loc, ok := resolvePath(campaigns, rel)
			if !ok {
				continue
			}

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&fsnotify.Write != 0:
				kind = "updated"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = "deleted"
			default:
				continue
			}

			c.InvalidateContent(loc.contentType, loc.slug, loc.campaignID)
			c.InvalidateContentLists(loc.contentType, loc.campaignID)
			logger.Debug("watcher: invalidated",
				slog.String("path", rel),
				slog.String("op", kind),
				slog.String("content_type", loc.contentType),
				slog.String("campaign", loc.campaignID))
			if cb != nil {
				cb(kind, loc.contentType, loc.campaignID, loc.slug)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

type location struct {
	contentType string
	campaignID  string
	slug        string
}

// resolvePath maps a root-relative file path back to its campaign, content
// type, and slug. Campaigns with longer content paths are matched first so a
// campaign rooted at "a/b" wins over one rooted at "a".
func resolvePath(campaigns *campaign.Registry, rel string) (location, bool) {
	list := campaigns.List()
	sort.Slice(list, func(i, j int) bool {
		return len(list[i].ContentPath) > len(list[j].ContentPath)
	})

	for _, camp := range list {
		prefix := camp.ContentPath + "/"
		if !strings.HasPrefix(rel, prefix) {
			continue
		}
		rest := strings.TrimPrefix(rel, prefix)
		dir := ""
		if i := strings.LastIndex(rest, "/"); i >= 0 {
			dir = rest[:i]
			rest = rest[i+1:]
		}
		for _, ct := range schema.ContentTypes() {
			if ct.Dir == dir {
				return location{
					contentType: ct.ID,
					campaignID:  camp.ID,
					slug:        strings.TrimSuffix(rest, ".md"),
				}, true
			}
		}
		return location{}, false
	}
	return location{}, false
}

// addNewDir adds a newly created directory (and its children) to the watch
// list. It reports whether absPath was a directory.
func addNewDir(w *fsnotify.Watcher, absPath string, logger *slog.Logger) bool {
	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return false
	}
	if err := addDirsRecursive(w, absPath); err != nil {
		logger.Warn("watcher: add new dir failed",
			slog.String("path", absPath),
			slog.String("error", err.Error()))
	} else {
		logger.Debug("watcher: watching new dir", slog.String("path", absPath))
	}
	return true
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

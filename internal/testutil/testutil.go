// Package testutil provides shared test helpers for setting up content
// roots and managers.
package testutil

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/content"
	"github.com/ravenholt/lorekeep/internal/hooks"
	"github.com/ravenholt/lorekeep/internal/storage"
)

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ContentRoot creates a temporary content root with a storage provider.
func ContentRoot(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// Env is a fully wired content engine over a temporary content root.
type Env struct {
	Root      string
	Store     storage.Provider
	Cache     *cache.Cache
	Hooks     *hooks.Registry
	Campaigns *campaign.Registry
	Manager   *content.Manager
}

/// NewEnv builds a fresh engine: its own cache and hook registry, a default
// campaign, and no built-in hooks (tests register what they need).
func NewEnv(t *testing.T) *Env {
	t.Helper()
	root, store := ContentRoot(t)

	campaigns, err := campaign.Load(store)
	if err != nil {
		t.Fatal(err)
	}

	c := cache.New(true, 10*time.Minute)
	h := hooks.NewRegistry(Logger())
	mgr := content.NewManager(store, c, h, campaigns, Logger())

	return &Env{
		Root:      root,
		Store:     store,
		Cache:     c,
		Hooks:     h,
		Campaigns: campaigns,
		Manager:   mgr,
	}
}

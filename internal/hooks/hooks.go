// Package hooks implements the before/after pipeline around content mutations.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Phase is when a hook runs relative to the mutation.
type Phase string

const (
	Before Phase = "before"
	After  Phase = "after"
)

// Action is the mutation kind a hook is attached to.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

// HookContext carries the mutation being processed. Data is the incoming
// payload; Previous holds the stored record on update/delete.
type HookContext struct {
	ContentType string
	CampaignID  string
	Slug        string
	Data        map[string]any
	Previous    map[string]any
}

// Handler processes one hook invocation. Returning a non-nil map replaces
// the context data for subsequent handlers and becomes the pipeline result.
// A before-phase error aborts the mutation.
type Handler func(ctx context.Context, hc *HookContext) (map[string]any, error)

// Hook is a named registration.
type Hook struct {
	Name    string
	Phase   Phase
	Action  Action
	Handler Handler
}

type key struct {
	phase  Phase
	action Action
}

// Registry holds hooks keyed by (phase, action). It is safe for concurrent
// use; in normal operation registration happens at startup only.
type Registry struct {
	mu     sync.RWMutex
	hooks  map[key][]Hook
	logger *slog.Logger
}

// NewRegistry creates an empty hook registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{hooks: make(map[key][]Hook), logger: logger}
}

// Register appends a hook. Multiple hooks per (phase, action) run in
// registration order.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{h.Phase, h.Action}
	r.hooks[k] = append(r.hooks[k], h)
}

// Unregister removes the first hook with the given name across all keys and
// reports whether one was found.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, list := range r.hooks {
		for i, h := range list {
			if h.Name == name {
				r.hooks[k] = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Execute runs all hooks for (phase, action) in order, threading hc.Data
// through each handler. Before-phase handler errors abort execution and
// propagate so the caller can cancel the mutation before touching disk.
// After-phase errors are logged and swallowed: the mutation has already
// committed and must not be failed retroactively.
func (r *Registry) Execute(ctx context.Context, phase Phase, action Action, hc *HookContext) (map[string]any, error) {
	r.mu.RLock()
	list := r.hooks[key{phase, action}]
	r.mu.RUnlock()

	for _, h := range list {
		out, err := h.Handler(ctx, hc)
		if err != nil {
			if phase == Before {
				return nil, fmt.Errorf("hook %s (%s:%s): %w", h.Name, phase, action, err)
			}
			r.logger.Error("after-hook failed",
				slog.String("hook", h.Name),
				slog.String("action", string(action)),
				slog.String("content_type", hc.ContentType),
				slog.String("slug", hc.Slug),
				slog.String("error", err.Error()))
			continue
		}
		if out != nil {
			hc.Data = out
		}
	}
	return hc.Data, nil
}

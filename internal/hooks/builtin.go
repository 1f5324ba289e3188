package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/slug"
)

// Built-in hooks. Each is optional and independently registerable; the
// content manager performs its own slug generation and timestamping, so it
// works correctly with none of these installed.

// SlugFromName derives a slug from the name field when none was supplied.
func SlugFromName() Hook {
	return Hook{
		Name:   "builtin.slug-from-name",
		Phase:  Before,
		Action: ActionCreate,
		Handler: func(_ context.Context, hc *HookContext) (map[string]any, error) {
			if s, _ := hc.Data["slug"].(string); s != "" {
				return nil, nil
			}
			name, _ := hc.Data["name"].(string)
			derived := slug.Make(name)
			if derived == "" {
				return nil, nil
			}
			out := cloneData(hc.Data)
			out["slug"] = derived
			return out, nil
		},
	}
}

// RequireName rejects creation of records without a usable name.
func RequireName() Hook {
	return Hook{
		Name:   "builtin.require-name",
		Phase:  Before,
		Action: ActionCreate,
		Handler: func(_ context.Context, hc *HookContext) (map[string]any, error) {
			if name, _ := hc.Data["name"].(string); name == "" {
				return nil, fmt.Errorf("name is required")
			}
			return nil, nil
		},
	}
}

// TouchUpdated stamps the updated timestamp on every update.
func TouchUpdated() Hook {
	return Hook{
		Name:   "builtin.touch-updated",
		Phase:  Before,
		Action: ActionUpdate,
		Handler: func(_ context.Context, hc *HookContext) (map[string]any, error) {
			out := cloneData(hc.Data)
			out["updated"] = time.Now().UTC().Format(time.RFC3339)
			return out, nil
		},
	}
}

// InvalidateCache drops the item and list cache entries after an update.
func InvalidateCache(c *cache.Cache) Hook {
	return Hook{
		Name:   "builtin.invalidate-cache",
		Phase:  After,
		Action: ActionUpdate,
		Handler: func(_ context.Context, hc *HookContext) (map[string]any, error) {
			c.InvalidateContent(hc.ContentType, hc.Slug, hc.CampaignID)
			c.InvalidateContentLists(hc.ContentType, hc.CampaignID)
			return nil, nil
		},
	}
}

// AuditLog records every committed update.
func AuditLog(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return Hook{
		Name:   "builtin.audit-log",
		Phase:  After,
		Action: ActionUpdate,
		Handler: func(_ context.Context, hc *HookContext) (map[string]any, error) {
			logger.Info("content updated",
				slog.String("content_type", hc.ContentType),
				slog.String("campaign", hc.CampaignID),
				slog.String("slug", hc.Slug))
			return nil, nil
		},
	}
}

// RegisterBuiltins installs the full reference set.
func RegisterBuiltins(r *Registry, c *cache.Cache, logger *slog.Logger) {
	r.Register(SlugFromName())
	r.Register(RequireName())
	r.Register(TouchUpdated())
	r.Register(InvalidateCache(c))
	r.Register(AuditLog(logger))
}

func cloneData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Package campaign manages the registry of independent content trees.
//
// Campaigns are persisted as one JSON document under the content root
// (campaigns.json) and written atomically through the storage provider.
// The registry enforces one invariant: at least one campaign is active at
// all times.
package campaign

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ravenholt/lorekeep/internal/slug"
	"github.com/ravenholt/lorekeep/internal/storage"
)

// FileName is the registry document path relative to the content root.
const FileName = "campaigns.json"

// Campaign is one independent content tree.
type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// ContentPath is the campaign's directory relative to the content root.
	ContentPath string `json:"content_path"`
	Active      bool   `json:"active"`
}

type document struct {
	Campaigns []Campaign `json:"campaigns"`
}

// Registry loads and mutates the campaign table.
type Registry struct {
	mu        sync.RWMutex
	store     storage.Provider
	campaigns []Campaign
}

// Load reads the registry document, creating a default single-campaign
// registry when none exists yet.
func Load(store storage.Provider) (*Registry, error) {
	r := &Registry{store: store}

	if !store.Exists(FileName) {
		r.campaigns = []Campaign{{
			ID:          "default",
			Name:        "Default Campaign",
			ContentPath: "default",
			Active:      true,
		}}
		if err := r.save(); err != nil {
			return nil, err
		}
		return r, nil
	}

	data, err := store.Read(FileName)
	if err != nil {
		return nil, fmt.Errorf("campaign: read registry: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("campaign: parse registry: %w", err)
	}
	if countActive(doc.Campaigns) == 0 {
		return nil, fmt.Errorf("campaign: registry has no active campaign")
	}
	r.campaigns = doc.Campaigns
	return r, nil
}

// save writes the document. Caller need not hold the lock for the initial
// load path; mutating methods call it with the write lock held, which is
// safe because save only reads r.campaigns.
func (r *Registry) save() error {
	data, err := json.MarshalIndent(document{Campaigns: r.campaigns}, "", "  ")
	if err != nil {
		return fmt.Errorf("campaign: encode registry: %w", err)
	}
	if err := r.store.Write(FileName, append(data, '\n')); err != nil {
		return fmt.Errorf("campaign: write registry: %w", err)
	}
	return nil
}

// List returns all campaigns.
func (r *Registry) List() []Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Campaign, len(r.campaigns))
	copy(out, r.campaigns)
	return out
}

// Active returns the active campaigns in registry order.
func (r *Registry) Active() []Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Campaign
	for _, c := range r.campaigns {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the campaign with the given id.
func (r *Registry) Get(id string) (Campaign, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return Campaign{}, false
}

// Resolve returns the campaign for an explicit id, or, given an empty id,
// the first active campaign in registry order. The fallback is deterministic
// so callers that omit the campaign always land in the same tree.
func (r *Registry) Resolve(id string) (Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id != "" {
		for _, c := range r.campaigns {
			if c.ID == id {
				return c, nil
			}
		}
		return Campaign{}, fmt.Errorf("campaign: unknown campaign %q", id)
	}
	for _, c := range r.campaigns {
		if c.Active {
			return c, nil
		}
	}
	return Campaign{}, fmt.Errorf("campaign: no active campaign")
}

// Create adds a campaign and persists the registry. An empty ID is derived
// from the name; an empty ContentPath defaults to the ID.
func (r *Registry) Create(c Campaign) (Campaign, error) {
	if c.ID == "" {
		c.ID = slug.Make(c.Name)
	}
	if c.ID == "" {
		return Campaign{}, fmt.Errorf("campaign: id or name is required")
	}
	if c.ContentPath == "" {
		c.ContentPath = c.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.campaigns {
		if existing.ID == c.ID {
			return Campaign{}, fmt.Errorf("campaign: %q already exists", c.ID)
		}
	}
	r.campaigns = append(r.campaigns, c)
	if err := r.save(); err != nil {
		r.campaigns = r.campaigns[:len(r.campaigns)-1]
		return Campaign{}, err
	}
	return c, nil
}

// Delete removes a campaign. Removing the last active campaign is rejected:
// the registry must always resolve somewhere.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, c := range r.campaigns {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("campaign: unknown campaign %q", id)
	}

	remaining := make([]Campaign, 0, len(r.campaigns)-1)
	remaining = append(remaining, r.campaigns[:idx]...)
	remaining = append(remaining, r.campaigns[idx+1:]...)
	if countActive(remaining) == 0 {
		return fmt.Errorf("campaign: cannot delete the last active campaign")
	}

	prev := r.campaigns
	r.campaigns = remaining
	if err := r.save(); err != nil {
		r.campaigns = prev
		return err
	}
	return nil
}

// SetActive toggles a campaign's active flag. Deactivating the last active
// campaign is rejected.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, c := range r.campaigns {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("campaign: unknown campaign %q", id)
	}
	if r.campaigns[idx].Active == active {
		return nil
	}

	prevFlag := r.campaigns[idx].Active
	r.campaigns[idx].Active = active
	if countActive(r.campaigns) == 0 {
		r.campaigns[idx].Active = prevFlag
		return fmt.Errorf("campaign: cannot deactivate the last active campaign")
	}
	if err := r.save(); err != nil {
		r.campaigns[idx].Active = prevFlag
		return err
	}
	return nil
}

func countActive(cs []Campaign) int {
	n := 0
	for _, c := range cs {
		if c.Active {
			n++
		}
	}
	return n
}

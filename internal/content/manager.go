package content

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/ravenholt/lorekeep/internal/apperr"
	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/frontmatter"
	"github.com/ravenholt/lorekeep/internal/hooks"
	"github.com/ravenholt/lorekeep/internal/schema"
	"github.com/ravenholt/lorekeep/internal/slug"
	"github.com/ravenholt/lorekeep/internal/storage"
	"github.com/ravenholt/lorekeep/internal/validation"
)

// CampaignResolver supplies the campaign for an operation. An empty id must
// resolve deterministically to the active campaign.
type CampaignResolver interface {
	Resolve(id string) (campaign.Campaign, error)
}

// EventFunc is notified after committed mutations. kind is one of
// "created", "updated", "deleted".
type EventFunc func(kind, contentType, campaignID, slug string)

// Manager orchestrates content operations. Cache and hook registry are
// injected so tests get fresh instances; there are no package-level
// singletons.
//
// Operations return a value and a coded *apperr.Error; a nil error is the
// success branch of the envelope. Raw errors never escape: unexpected I/O
// and hook failures are wrapped into the per-operation codes.
//
// Concurrent mutations of the same slug are not serialized. The filesystem's
// own write semantics are the only consistency guarantee (last writer wins),
// which is accepted for the single-admin usage pattern.
type Manager struct {
	store     storage.Provider
	cache     *cache.Cache
	hooks     *hooks.Registry
	campaigns CampaignResolver
	logger    *slog.Logger
	events    EventFunc
	now       func() time.Time
}

// NewManager creates a content manager.
func NewManager(store storage.Provider, c *cache.Cache, h *hooks.Registry, campaigns CampaignResolver, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     store,
		cache:     c,
		hooks:     h,
		campaigns: campaigns,
		logger:    logger,
		now:       time.Now,
	}
}

// OnEvent installs a post-mutation notification callback.
func (m *Manager) OnEvent(fn EventFunc) { m.events = fn }

// CreateInput is the payload for Create.
type CreateInput struct {
	Type           string
	CampaignID     string
	Fields         map[string]any
	Body           string
	SkipValidation bool
	SkipHooks      bool
}

// UpdateInput is the payload for Update. Nil Body leaves the stored body
// unchanged; Fields are merged over the stored frontmatter.
type UpdateInput struct {
	Type           string
	CampaignID     string
	Slug           string
	Fields         map[string]any
	Body           *string
	SkipValidation bool
	SkipHooks      bool
}

// resolve maps a content-type id and campaign id to their definitions.
// code is the per-operation error family for campaign resolution failures.
func (m *Manager) resolve(typeID, campaignID string, code apperr.Code) (*schema.ContentType, campaign.Campaign, *apperr.Error) {
	ct, ok := schema.GetContentType(typeID)
	if !ok {
		return nil, campaign.Campaign{}, apperr.Newf(apperr.CodeInvalidContentType, "unknown content type %q", typeID)
	}
	camp, err := m.campaigns.Resolve(campaignID)
	if err != nil {
		return nil, campaign.Campaign{}, apperr.Wrap(code, "resolve campaign", err)
	}
	return ct, camp, nil
}

func typeDir(ct *schema.ContentType, camp campaign.Campaign) string {
	return path.Join(camp.ContentPath, ct.Dir)
}

func filePath(ct *schema.ContentType, camp campaign.Campaign, slugStr string) string {
	return path.Join(typeDir(ct, camp), slugStr+".md")
}

// checkSlug rejects slugs that don't match the canonical pattern. Anything
// else would break the <typeDir>/<slug>.md layout: path.Join resolves ".."
// segments, so an unchecked slug could land a record outside its type or
// campaign directory.
func checkSlug(slugStr string) *apperr.Error {
	if !schema.SlugPattern().MatchString(slugStr) {
		return apperr.Newf(apperr.CodeValidation, "invalid slug %q", slugStr)
	}
	return nil
}

// Find lists records matching the query: filter, sort, paginate. A missing
// directory is an empty result, not an error. Results are served through the
// list cache keyed by a hash of the fully-resolved query.
func (m *Manager) Find(ctx context.Context, q Query) (*FindResult, *apperr.Error) {
	ct, camp, aerr := m.resolve(q.Type, q.CampaignID, apperr.CodeFind)
	if aerr != nil {
		return nil, aerr
	}
	q.CampaignID = camp.ID

	cached, err := m.cache.FetchList(ct.ID, camp.ID, q.hash(), func() (any, error) {
		return m.findUncached(ct, camp, q)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeFind, "list content", err)
	}
	result, ok := cached.(*FindResult)
	if !ok {
		return nil, apperr.New(apperr.CodeFind, "unexpected cache payload")
	}
	return result, nil
}

func (m *Manager) findUncached(ct *schema.ContentType, camp campaign.Campaign, q Query) (*FindResult, error) {
	files, err := m.store.ListDir(typeDir(ct, camp))
	if err != nil {
		return nil, err
	}

	var matched []*Record
	for _, f := range files {
		rec, err := m.readRecord(ct, camp, f.Name)
		if err != nil {
			m.logger.Warn("skipping unreadable content file",
				slog.String("file", f.Name),
				slog.String("content_type", ct.ID),
				slog.String("campaign", camp.ID),
				slog.String("error", err.Error()))
			continue
		}
		if q.matches(rec) {
			if !q.IncludeBody {
				rec = rec.WithoutBody()
			}
			matched = append(matched, rec)
		}
	}

	q.sortRecords(matched)
	page, total := q.paginate(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FindResult{Items: page, Total: total, Offset: q.Offset, Limit: limit}, nil
}

// Get returns a single record, cache-first. The cached copy always carries
// the body; includeBody only controls what the caller receives.
func (m *Manager) Get(ctx context.Context, typeID, slugStr, campaignID string, includeBody bool) (*Record, *apperr.Error) {
	ct, camp, aerr := m.resolve(typeID, campaignID, apperr.CodeGet)
	if aerr != nil {
		return nil, aerr
	}
	if aerr := checkSlug(slugStr); aerr != nil {
		return nil, aerr
	}

	if v, ok := m.cache.GetContent(ct.ID, slugStr, camp.ID); ok {
		if rec, ok := v.(*Record); ok {
			if !includeBody {
				return rec.WithoutBody(), nil
			}
			return rec, nil
		}
	}

	fp := filePath(ct, camp, slugStr)
	if !m.store.Exists(fp) {
		return nil, apperr.Newf(apperr.CodeNotFound, "%s %q not found in campaign %q", ct.ID, slugStr, camp.ID)
	}
	rec, err := m.readRecord(ct, camp, slugStr+".md")
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeGet, "read content", err)
	}

	// Cached at the base TTL; mutations and the watcher invalidate sooner.
	m.cache.SetContent(ct.ID, slugStr, camp.ID, rec)

	if !includeBody {
		return rec.WithoutBody(), nil
	}
	return rec, nil
}

// Create validates, runs before-hooks, derives the slug, and writes a new
// file. It never overwrites: a colliding slug is CONTENT_EXISTS.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Record, *apperr.Error) {
	ct, camp, aerr := m.resolve(in.Type, in.CampaignID, apperr.CodeCreate)
	if aerr != nil {
		return nil, aerr
	}

	data := cloneFields(in.Fields)
	applyDefaults(ct, data)

	if !in.SkipValidation {
		if res := validation.Validate(&ct.Schema, data); !res.Valid {
			return nil, apperr.New(apperr.CodeValidation, "validation failed").WithDetails(res.Errors)
		}
	}

	if !in.SkipHooks {
		hc := &hooks.HookContext{ContentType: ct.ID, CampaignID: camp.ID, Data: data}
		out, err := m.hooks.Execute(ctx, hooks.Before, hooks.ActionCreate, hc)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeCreate, "before-create hook", err)
		}
		data = out
	}

	slugStr, _ := data[KeySlug].(string)
	if slugStr == "" {
		slugStr = slug.Make(asString(data["name"]))
	}
	if slugStr == "" {
		return nil, apperr.New(apperr.CodeCreate, "unable to derive a slug: name is empty")
	}
	if aerr := checkSlug(slugStr); aerr != nil {
		return nil, aerr
	}

	fp := filePath(ct, camp, slugStr)
	if m.store.Exists(fp) {
		return nil, apperr.Newf(apperr.CodeExists, "%s %q already exists in campaign %q", ct.ID, slugStr, camp.ID)
	}

	now := m.now().UTC()
	data[KeySlug] = slugStr
	data[KeyCreated] = now.Format(time.RFC3339)
	data[KeyUpdated] = now.Format(time.RFC3339)
	data[KeyVersion] = 1
	if asString(data[KeyStatus]) == "" {
		data[KeyStatus] = StatusPublished
	}

	raw := frontmatter.Serialize(fieldOrder(ct), data, in.Body)
	if err := m.store.Write(fp, raw); err != nil {
		return nil, apperr.Wrap(apperr.CodeCreate, "write content", err)
	}

	m.cache.InvalidateContentLists(ct.ID, camp.ID)

	rec := &Record{Type: ct.ID, CampaignID: camp.ID, Slug: slugStr, Fields: data, Body: in.Body}

	if !in.SkipHooks {
		hc := &hooks.HookContext{ContentType: ct.ID, CampaignID: camp.ID, Slug: slugStr, Data: data}
		_, _ = m.hooks.Execute(ctx, hooks.After, hooks.ActionCreate, hc)
	}
	m.emit("created", ct.ID, camp.ID, slugStr)

	return rec, nil
}

// Update merges the incoming fields over the stored record, bumps the
// version and updated timestamp, and rewrites the file. A slug change
// writes the new file first and deletes the old one best-effort: a failed
// delete logs a warning instead of failing, so a rename can orphan but
// never destroy data.
func (m *Manager) Update(ctx context.Context, in UpdateInput) (*Record, *apperr.Error) {
	ct, camp, aerr := m.resolve(in.Type, in.CampaignID, apperr.CodeUpdate)
	if aerr != nil {
		return nil, aerr
	}
	if aerr := checkSlug(in.Slug); aerr != nil {
		return nil, aerr
	}

	oldPath := filePath(ct, camp, in.Slug)
	if !m.store.Exists(oldPath) {
		return nil, apperr.Newf(apperr.CodeNotFound, "%s %q not found in campaign %q", ct.ID, in.Slug, camp.ID)
	}
	prev, err := m.readRecord(ct, camp, in.Slug+".md")
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpdate, "read existing content", err)
	}

	merged := cloneFields(prev.Fields)
	for k, v := range in.Fields {
		merged[k] = v
	}

	if !in.SkipValidation {
		if res := validation.Validate(&ct.Schema, merged); !res.Valid {
			return nil, apperr.New(apperr.CodeValidation, "validation failed").WithDetails(res.Errors)
		}
	}

	if !in.SkipHooks {
		hc := &hooks.HookContext{
			ContentType: ct.ID,
			CampaignID:  camp.ID,
			Slug:        in.Slug,
			Data:        merged,
			Previous:    prev.Fields,
		}
		out, hookErr := m.hooks.Execute(ctx, hooks.Before, hooks.ActionUpdate, hc)
		if hookErr != nil {
			return nil, apperr.Wrap(apperr.CodeUpdate, "before-update hook", hookErr)
		}
		merged = out
	}

	merged[KeyUpdated] = m.now().UTC().Format(time.RFC3339)
	merged[KeyVersion] = prev.Version() + 1

	newSlug := asString(merged[KeySlug])
	if newSlug == "" {
		newSlug = in.Slug
	}
	if aerr := checkSlug(newSlug); aerr != nil {
		return nil, aerr
	}
	merged[KeySlug] = newSlug

	body := prev.Body
	if in.Body != nil {
		body = *in.Body
	}

	newPath := filePath(ct, camp, newSlug)
	raw := frontmatter.Serialize(fieldOrder(ct), merged, body)
	if err := m.store.Write(newPath, raw); err != nil {
		return nil, apperr.Wrap(apperr.CodeUpdate, "write content", err)
	}

	if newSlug != in.Slug {
		if err := m.store.Delete(oldPath); err != nil {
			// The new file is committed; losing the old one would be worse
			// than leaving an orphan.
			m.logger.Warn("failed to remove old file after slug change",
				slog.String("old", oldPath),
				slog.String("new", newPath),
				slog.String("error", err.Error()))
		}
	}

	m.cache.InvalidateContent(ct.ID, in.Slug, camp.ID)
	m.cache.InvalidateContent(ct.ID, newSlug, camp.ID)
	m.cache.InvalidateContentLists(ct.ID, camp.ID)

	rec := &Record{Type: ct.ID, CampaignID: camp.ID, Slug: newSlug, Fields: merged, Body: body}

	if !in.SkipHooks {
		hc := &hooks.HookContext{
			ContentType: ct.ID,
			CampaignID:  camp.ID,
			Slug:        newSlug,
			Data:        merged,
			Previous:    prev.Fields,
		}
		_, _ = m.hooks.Execute(ctx, hooks.After, hooks.ActionUpdate, hc)
	}
	m.emit("updated", ct.ID, camp.ID, newSlug)

	return rec, nil
}

// Delete removes a record and its cache entries. The record is loaded first
// so delete hooks see the data being removed.
func (m *Manager) Delete(ctx context.Context, typeID, slugStr, campaignID string) *apperr.Error {
	ct, camp, aerr := m.resolve(typeID, campaignID, apperr.CodeDelete)
	if aerr != nil {
		return aerr
	}
	if aerr := checkSlug(slugStr); aerr != nil {
		return aerr
	}

	fp := filePath(ct, camp, slugStr)
	if !m.store.Exists(fp) {
		return apperr.Newf(apperr.CodeNotFound, "%s %q not found in campaign %q", ct.ID, slugStr, camp.ID)
	}
	existing, err := m.readRecord(ct, camp, slugStr+".md")
	if err != nil {
		return apperr.Wrap(apperr.CodeDelete, "read existing content", err)
	}

	hc := &hooks.HookContext{
		ContentType: ct.ID,
		CampaignID:  camp.ID,
		Slug:        slugStr,
		Data:        existing.Fields,
	}
	if _, hookErr := m.hooks.Execute(ctx, hooks.Before, hooks.ActionDelete, hc); hookErr != nil {
		return apperr.Wrap(apperr.CodeDelete, "before-delete hook", hookErr)
	}

	if err := m.store.Delete(fp); err != nil {
		return apperr.Wrap(apperr.CodeDelete, "delete content", err)
	}

	m.cache.InvalidateContent(ct.ID, slugStr, camp.ID)
	m.cache.InvalidateContentLists(ct.ID, camp.ID)

	_, _ = m.hooks.Execute(ctx, hooks.After, hooks.ActionDelete, hc)
	m.emit("deleted", ct.ID, camp.ID, slugStr)

	return nil
}

// readRecord loads and parses one content file. fileName includes the .md
// extension; the slug is its stem.
func (m *Manager) readRecord(ct *schema.ContentType, camp campaign.Campaign, fileName string) (*Record, error) {
	data, err := m.store.Read(path.Join(typeDir(ct, camp), fileName))
	if err != nil {
		return nil, err
	}
	fm, body := frontmatter.Parse(data)
	if fm == nil {
		fm = map[string]any{}
	}
	slugStr := asString(fm[KeySlug])
	if slugStr == "" {
		slugStr = fileName[:len(fileName)-len(".md")]
		fm[KeySlug] = slugStr
	}
	return &Record{Type: ct.ID, CampaignID: camp.ID, Slug: slugStr, Fields: fm, Body: body}, nil
}

// applyDefaults fills missing fields with their schema defaults.
func applyDefaults(ct *schema.ContentType, data map[string]any) {
	for _, f := range ct.Schema.Fields {
		if _, ok := data[f.ID]; !ok && f.Default != nil {
			data[f.ID] = f.Default
		}
	}
}

func (m *Manager) emit(kind, contentType, campaignID, slugStr string) {
	if m.events != nil {
		m.events(kind, contentType, campaignID, slugStr)
	}
}

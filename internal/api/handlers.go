package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/checksum"
	"github.com/ravenholt/lorekeep/internal/content"
	"github.com/ravenholt/lorekeep/internal/schema"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	mgr       *content.Manager
	campaigns *campaign.Registry
	cache     *cache.Cache
}

// NewHandler creates a new Handler.
func NewHandler(mgr *content.Manager, campaigns *campaign.Registry, c *cache.Cache) *Handler {
	return &Handler{mgr: mgr, campaigns: campaigns, cache: c}
}

// ListTypes handles GET /api/types.
func (h *Handler) ListTypes(w http.ResponseWriter, _ *http.Request) {
	types := schema.ContentTypes()
	out := make([]ContentTypeInfo, len(types))
	for i, ct := range types {
		fields := make([]string, len(ct.Schema.Fields))
		for j, f := range ct.Schema.Fields {
			fields[j] = f.ID
		}
		out[i] = ContentTypeInfo{
			ID:       ct.ID,
			Name:     ct.Name,
			Plural:   ct.Plural,
			Category: ct.Category,
			APIPath:  ct.APIPath,
			Icon:     ct.Icon,
			Fields:   fields,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": out})
}

// FindContent handles GET /api/content/{type}.
func (h *Handler) FindContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	query := content.Query{
		Type:        chi.URLParam(r, "type"),
		CampaignID:  q.Get("campaign"),
		Status:      q.Get("status"),
		Tags:        q["tag"],
		Search:      q.Get("search"),
		SortBy:      q.Get("sort"),
		SortOrder:   q.Get("order"),
		Limit:       limit,
		Offset:      offset,
		IncludeBody: q.Get("body") == "true",
	}

	result, aerr := h.mgr.Find(r.Context(), query)
	if aerr != nil {
		writeAppError(w, aerr)
		return
	}
	var resp *FindResponse = result
	writeJSON(w, http.StatusOK, resp)
}

// GetContent handles GET /api/content/{type}/{slug}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	includeBody := r.URL.Query().Get("body") != "false"
	rec, aerr := h.mgr.Get(r.Context(),
		chi.URLParam(r, "type"),
		chi.URLParam(r, "slug"),
		r.URL.Query().Get("campaign"),
		includeBody)
	if aerr != nil {
		writeAppError(w, aerr)
		return
	}

	if payload, err := json.Marshal(rec); err == nil {
		etag := `"` + checksum.Sum(payload) + `"`
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateContent handles POST /api/content/{type}.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid JSON body"))
		return
	}
	if req.Fields == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_REQUEST", "fields are required"))
		return
	}

	rec, aerr := h.mgr.Create(r.Context(), content.CreateInput{
		Type:       chi.URLParam(r, "type"),
		CampaignID: req.Campaign,
		Fields:     req.Fields,
		Body:       req.Body,
	})
	if aerr != nil {
		writeAppError(w, aerr)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateContent handles PUT /api/content/{type}/{slug}.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid JSON body"))
		return
	}
	if req.Fields == nil {
		req.Fields = map[string]any{}
	}

	rec, aerr := h.mgr.Update(r.Context(), content.UpdateInput{
		Type:       chi.URLParam(r, "type"),
		CampaignID: req.Campaign,
		Slug:       chi.URLParam(r, "slug"),
		Fields:     req.Fields,
		Body:       req.Body,
	})
	if aerr != nil {
		writeAppError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteContent handles DELETE /api/content/{type}/{slug}.
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	aerr := h.mgr.Delete(r.Context(),
		chi.URLParam(r, "type"),
		chi.URLParam(r, "slug"),
		r.URL.Query().Get("campaign"))
	if aerr != nil {
		writeAppError(w, aerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCampaigns handles GET /api/campaigns.
func (h *Handler) ListCampaigns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": h.campaigns.List()})
}

// CreateCampaign handles POST /api/campaigns.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid JSON body"))
		return
	}
	created, err := h.campaigns.Create(campaign.Campaign{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ContentPath: req.ContentPath,
		Active:      req.Active,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("CAMPAIGN_ERROR", err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteCampaign handles DELETE /api/campaigns/{id}.
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("CAMPAIGN_ERROR", err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshCache handles POST /api/cache/refresh: a full cache reset.
func (h *Handler) RefreshCache(w http.ResponseWriter, _ *http.Request) {
	h.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

package api

import "github.com/ravenholt/lorekeep/internal/content"

// CreateContentRequest is the request body for creating a record.
type CreateContentRequest struct {
	Campaign string         `json:"campaign,omitempty"`
	Fields   map[string]any `json:"fields"`
	Body     string         `json:"body,omitempty"`
}

// UpdateContentRequest is the request body for updating a record. A nil
// Body leaves the stored Markdown body unchanged.
type UpdateContentRequest struct {
	Campaign string         `json:"campaign,omitempty"`
	Fields   map[string]any `json:"fields"`
	Body     *string        `json:"body,omitempty"`
}

// CreateCampaignRequest is the request body for registering a campaign.
type CreateCampaignRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ContentPath string `json:"content_path,omitempty"`
	Active      bool   `json:"active"`
}

// ContentTypeInfo describes a registered content type in the types listing.
type ContentTypeInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Plural   string   `json:"plural"`
	Category string   `json:"category"`
	APIPath  string   `json:"api_path"`
	Icon     string   `json:"icon"`
	Fields   []string `json:"fields"`
}

// FindResponse is the paginated find payload (aliased from the domain layer).
type FindResponse = content.FindResult

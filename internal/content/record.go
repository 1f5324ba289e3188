// Package content implements the schema-driven content engine: CRUD over
// Markdown+frontmatter files scoped by campaign, composed with the schema
// registry, validator, cache, and hook pipeline.
package content

import (
	"time"

	"github.com/ravenholt/lorekeep/internal/schema"
)

// Bookkeeping frontmatter keys maintained by the manager.
const (
	KeySlug    = "slug"
	KeyStatus  = "status"
	KeyCreated = "created"
	KeyUpdated = "updated"
	KeyVersion = "version"
)

// StatusPublished is the default status stamped on new records.
const StatusPublished = "published"

// Record is the in-memory representation of one content file. It is a
// transient copy: the file on disk is the source of truth, and the record's
// filename is always <slug>.md.
type Record struct {
	Type       string         `json:"type"`
	CampaignID string         `json:"campaign_id"`
	Slug       string         `json:"slug"`
	Fields     map[string]any `json:"fields"`
	Body       string         `json:"body,omitempty"`
}

// Name returns the record's display name.
func (r *Record) Name() string {
	n, _ := r.Fields["name"].(string)
	return n
}

// Status returns the record's status, defaulting to published.
func (r *Record) Status() string {
	if s, _ := r.Fields[KeyStatus].(string); s != "" {
		return s
	}
	return StatusPublished
}

// Version returns the record's version, or 0 when unset.
func (r *Record) Version() int {
	return asInt(r.Fields[KeyVersion])
}

// Created returns the creation timestamp, zero when missing or unparsable.
func (r *Record) Created() time.Time { return asTime(r.Fields[KeyCreated]) }

// Updated returns the last-update timestamp, zero when missing or unparsable.
func (r *Record) Updated() time.Time { return asTime(r.Fields[KeyUpdated]) }

// Tags returns the record's tags as strings.
func (r *Record) Tags() []string { return toStringSlice(r.Fields["tags"]) }

// WithoutBody returns a copy of the record with the body stripped.
func (r *Record) WithoutBody() *Record {
	c := *r
	c.Body = ""
	return &c
}

// fieldOrder returns the fixed frontmatter key order for a content type:
// slug first, then schema fields in declaration order, then bookkeeping.
func fieldOrder(ct *schema.ContentType) []string {
	order := make([]string, 0, len(ct.Schema.Fields)+5)
	order = append(order, KeySlug)
	for _, f := range ct.Schema.Fields {
		order = append(order, f.ID)
	}
	return append(order, KeyStatus, KeyCreated, KeyUpdated, KeyVersion)
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func toStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func cloneFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

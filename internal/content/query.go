package content

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/ravenholt/lorekeep/internal/checksum"
)

// DefaultLimit caps find results when the query does not set one.
const DefaultLimit = 50

// Query describes a find operation.
type Query struct {
	Type        string   `json:"type"`
	CampaignID  string   `json:"campaign_id"`
	Status      string   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Search      string   `json:"search,omitempty"`
	SortBy      string   `json:"sort_by,omitempty"`
	SortOrder   string   `json:"sort_order,omitempty"` // "asc" or "desc"
	Offset      int      `json:"offset,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	IncludeBody bool     `json:"include_body,omitempty"`
}

// FindResult is a page of matching records.
type FindResult struct {
	Items  []*Record `json:"items"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

// hash returns a stable digest of the fully-resolved query, used as the
// list-cache key component.
func (q Query) hash() string {
	data, _ := json.Marshal(q)
	return checksum.Sum(data)
}

// matches applies the in-memory filters: status equality, tag containment,
// and case-insensitive substring search across name, description, and body.
func (q Query) matches(r *Record) bool {
	if q.Status != "" && r.Status() != q.Status {
		return false
	}
	if len(q.Tags) > 0 {
		have := make(map[string]struct{})
		for _, t := range r.Tags() {
			have[t] = struct{}{}
		}
		for _, want := range q.Tags {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		desc, _ := r.Fields["description"].(string)
		haystack := strings.ToLower(r.Name() + "\n" + desc + "\n" + r.Body)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// sortRecords orders records by the query's sort field. "updated" and
// "created" compare as timestamps, numeric values numerically, everything
// else lexically. Slug breaks ties so the order is total.
func (q Query) sortRecords(records []*Record) {
	field := q.SortBy
	if field == "" {
		field = KeyUpdated
	}
	desc := q.SortOrder != "asc"

	sort.SliceStable(records, func(i, j int) bool {
		less, eq := compareByField(records[i], records[j], field)
		if eq {
			return records[i].Slug < records[j].Slug
		}
		if desc {
			return !less
		}
		return less
	})
}

// compareByField reports whether a sorts before b on field (ascending), and
// whether the two are equal on it.
func compareByField(a, b *Record, field string) (less, eq bool) {
	switch field {
	case KeyUpdated:
		ta, tb := a.Updated(), b.Updated()
		return ta.Before(tb), ta.Equal(tb)
	case KeyCreated:
		ta, tb := a.Created(), b.Created()
		return ta.Before(tb), ta.Equal(tb)
	}

	va, vb := a.Fields[field], b.Fields[field]
	if na, ok := asFloat(va); ok {
		if nb, ok := asFloat(vb); ok {
			return na < nb, na == nb
		}
	}
	sa, sb := asString(va), asString(vb)
	return sa < sb, sa == sb
}

// paginate applies offset/limit and returns the page plus the total count.
func (q Query) paginate(records []*Record) ([]*Record, int) {
	total := len(records)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*Record{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return records[offset:end], total
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

package cache

import (
	"fmt"
	"regexp"
	"time"
)

// Domain helpers layered on the generic cache. Item entries are keyed by
// (contentType, slug, campaign) and live until invalidated; list entries are
// keyed by (contentType, campaign, queryHash) and use half the base TTL,
// since list results go stale faster than single items.

// ListTTL returns the TTL applied to list entries.
func (c *Cache) ListTTL() time.Duration {
	return c.baseTTL / 2
}

func contentKey(contentType, slug, campaignID string) string {
	return fmt.Sprintf("content:%s:%s:%s", contentType, campaignID, slug)
}

func listKey(contentType, campaignID, queryHash string) string {
	return fmt.Sprintf("list:%s:%s:%s", contentType, campaignID, queryHash)
}

// TypeTag returns the invalidation tag shared by all entries of a content type.
func TypeTag(contentType string) string {
	return "type:" + contentType
}

// CampaignTag returns the invalidation tag shared by all entries of a campaign.
func CampaignTag(campaignID string) string {
	return "campaign:" + campaignID
}

// SetContent caches a single content item until invalidated.
func (c *Cache) SetContent(contentType, slug, campaignID string, data any) {
	c.Set(contentKey(contentType, slug, campaignID), data, 0,
		TypeTag(contentType), CampaignTag(campaignID))
}

// GetContent returns a cached content item.
func (c *Cache) GetContent(contentType, slug, campaignID string) (any, bool) {
	return c.Get(contentKey(contentType, slug, campaignID))
}

// InvalidateContent removes a cached content item.
func (c *Cache) InvalidateContent(contentType, slug, campaignID string) {
	c.Delete(contentKey(contentType, slug, campaignID))
}

// FetchList is the read-through helper for list queries.
func (c *Cache) FetchList(contentType, campaignID, queryHash string, fetch func() (any, error)) (any, error) {
	key := listKey(contentType, campaignID, queryHash)
	tags := []string{TypeTag(contentType), CampaignTag(campaignID)}
	return c.Fetch(key, c.ListTTL(), tags, fetch)
}

// InvalidateContentLists removes every cached list for a type and campaign,
// regardless of query hash.
func (c *Cache) InvalidateContentLists(contentType, campaignID string) int {
	pattern := fmt.Sprintf("^%slist:%s:%s:",
		regexp.QuoteMeta(keyPrefix), regexp.QuoteMeta(contentType), regexp.QuoteMeta(campaignID))
	n, _ := c.InvalidateByPattern(pattern)
	return n
}

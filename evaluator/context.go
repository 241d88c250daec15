// evaluator/context.go
package evaluator

import "shelfquest/abstats"

// ItemProvider resolves library item metadata.
type ItemProvider interface {
	GetItem(itemID string) (*abstats.Item, error)
}

// SeriesProvider resolves a series' detail including its ordered book list.
type SeriesProvider interface {
	GetSeries(seriesID string) (*abstats.SeriesDetail, error)
}

// Context carries the cycle-scoped metadata caches. One Context lives for
// exactly one orchestrator pass, so the same item looked up by the author and
// narrator evaluators costs a single fetch. Failed lookups are cached as nil;
// evaluators treat a nil item as "no metadata" and move on.
type Context struct {
	items  ItemProvider
	series SeriesProvider

	itemCache   map[string]*abstats.Item
	seriesCache map[string]*abstats.SeriesDetail
}

func NewContext(items ItemProvider, series SeriesProvider) *Context {
	return &Context{
		items:       items,
		series:      series,
		itemCache:   make(map[string]*abstats.Item),
		seriesCache: make(map[string]*abstats.SeriesDetail),
	}
}

// Item returns memoized metadata for an item, or nil when unavailable.
func (c *Context) Item(itemID string) *abstats.Item {
	if item, seen := c.itemCache[itemID]; seen {
		return item
	}
	var item *abstats.Item
	if c.items != nil {
		if fetched, err := c.items.GetItem(itemID); err == nil {
			item = fetched
		}
	}
	c.itemCache[itemID] = item
	return item
}

// SeriesDetail returns memoized detail for a series, or nil when unavailable.
func (c *Context) SeriesDetail(seriesID string) *abstats.SeriesDetail {
	if detail, seen := c.seriesCache[seriesID]; seen {
		return detail
	}
	var detail *abstats.SeriesDetail
	if c.series != nil {
		if fetched, err := c.series.GetSeries(seriesID); err == nil {
			detail = fetched
		}
	}
	c.seriesCache[seriesID] = detail
	return detail
}

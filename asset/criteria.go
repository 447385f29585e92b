package asset

import (
	"strings"

	"github.com/samber/mo"
)

// Page holds 1-based pagination options for a search.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

// Filter narrows a search to a set of category paths.
type Filter struct {
	Categories []string `json:"categories"`
}

// Criteria is an immutable description of one search request. It is passed by
// value (deep copy, see Clone) to each store so a store mutating its copy
// cannot affect another store's concurrent in-flight search.
type Criteria struct {
	Keywords []string        `json:"keywords"`
	Page     Page            `json:"page"`
	Sort     mo.Option[Sort] `json:"-"`
	Filter   Filter          `json:"filter"`

	// Vendors optionally restricts the query to a subset of registered stores.
	Vendors []string `json:"vendors"`

	// SearchTimeout bounds each store's search, in seconds.
	SearchTimeout int `json:"search_timeout"`
}

// DefaultCriteria returns a criteria with the documented defaults applied.
func DefaultCriteria() Criteria {
	return Criteria{
		Page:          Page{Number: 1, Size: 50},
		SearchTimeout: 60,
	}
}

// Normalize clamps pagination to the documented minimums.
func (c *Criteria) Normalize() {
	if c.Page.Number < 1 {
		c.Page.Number = 1
	}
	if c.Page.Size < 1 {
		c.Page.Size = 50
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 60
	}
}

// Clone returns a deep, independent copy for concurrent fan-out.
func (c Criteria) Clone() Criteria {
	clone := c
	clone.Keywords = append([]string(nil), c.Keywords...)
	clone.Filter.Categories = append([]string(nil), c.Filter.Categories...)
	clone.Vendors = append([]string(nil), c.Vendors...)
	return clone
}

// Terms joins the keywords into a single vendor query string.
func (c Criteria) Terms() string {
	return strings.Join(c.Keywords, " ")
}

// CategorySlug picks the most specific (last) segment across the filter's
// category paths, the form remote vendors accept as a slug-style filter.
func (c Criteria) CategorySlug() mo.Option[string] {
	var segments []string
	for _, category := range c.Filter.Categories {
		category = strings.TrimPrefix(category, "/")
		segments = append(segments, strings.Split(category, "/")...)
	}
	if len(segments) == 0 {
		return mo.None[string]()
	}
	last := segments[len(segments)-1]
	return mo.Some(strings.ReplaceAll(strings.ToLower(last), " ", "_"))
}

// Package static implements the in-memory catalog store, the simplest Store
// variant. It also backs the JSON-file catalog and serves as the filtering
// engine reused by the local filesystem store.
package static

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/store"
)

// Store serves a fixed list of assets.
type Store struct {
	id   string
	data []*asset.Asset
}

// New returns a static store serving the given catalog.
func New(id string, data []*asset.Asset) *Store {
	return &Store{id: id, data: data}
}

func (s *Store) ID() string {
	return s.id
}

func (s *Store) Provider() asset.Provider {
	return asset.Provider{Name: s.id, EnableCommonCategories: true}
}

func (s *Store) Authorized() bool {
	return true
}

func (s *Store) Authenticate(context.Context, string, string) error {
	return nil
}

// Categories derives the category tree from the catalog's asset categories.
func (s *Store) Categories() map[string][]string {
	return Categorize(s.data)
}

// Search filters the catalog by category and keywords, applies the optional
// sort and returns the requested 1-based page. The page is full exactly when
// more results may exist; an exactly-full final page therefore reports
// more=true and the following page comes back empty.
func (s *Store) Search(_ context.Context, criteria asset.Criteria) ([]*asset.Asset, bool, error) {
	criteria.Normalize()

	selected := Filter(s.data, criteria)

	if sort, ok := criteria.Sort.Get(); ok {
		selected = append([]*asset.Asset(nil), selected...)
		asset.SortAssets(selected, sort)
	}

	start := (criteria.Page.Number - 1) * criteria.Page.Size
	end := start + criteria.Page.Size
	if start > len(selected) {
		start = len(selected)
	}
	if end > len(selected) {
		end = len(selected)
	}

	page := selected[start:end]
	return page, len(page) == criteria.Page.Size, nil
}

// Download is unsupported for purely descriptive catalogs; assets carrying a
// product URL are acquired through their vendor instead.
func (s *Store) Download(context.Context, *asset.Asset, string, store.ProgressFunc) (store.Result, error) {
	return store.Result{Status: store.StatusNotFound}, nil
}

// Filter selects catalog assets matching the criteria's categories and keywords.
func Filter(data []*asset.Asset, criteria asset.Criteria) []*asset.Asset {
	filtered := FilterByCategory(data, criteria.Filter.Categories, false)

	if len(criteria.Keywords) == 0 {
		return filtered
	}

	return lo.Filter(filtered, func(item *asset.Asset, _ int) bool {
		for _, keyword := range criteria.Keywords {
			if strings.Contains(item.Name, keyword) || lo.Contains(item.Tags, keyword) {
				return true
			}
		}
		return false
	})
}

// FilterByCategory keeps assets whose category matches one of the given
// paths. With prefixMatch, assets in sub folders of a requested category are
// included as well.
func FilterByCategory(data []*asset.Asset, categories []string, prefixMatch bool) []*asset.Asset {
	if len(categories) == 0 {
		return data
	}

	matches := func(itemCategory string) bool {
		itemCategory = strings.ToLower(strings.TrimPrefix(itemCategory, "/"))
		for _, category := range categories {
			category = strings.ToLower(strings.TrimPrefix(category, "/"))
			if prefixMatch {
				if strings.HasPrefix(itemCategory, category) {
					return true
				}
			} else if strings.Contains(itemCategory, category) {
				return true
			}
		}
		return false
	}

	return lo.Filter(data, func(item *asset.Asset, _ int) bool {
		for _, itemCategory := range item.Categories {
			if matches(itemCategory) {
				return true
			}
		}
		return false
	})
}

// Categorize builds the root -> sub-path category map reported by a store.
func Categorize(data []*asset.Asset) map[string][]string {
	seen := make(map[string]struct{})
	for _, item := range data {
		for _, category := range item.Categories {
			seen[strings.TrimPrefix(category, "/")] = struct{}{}
		}
	}

	categories := make(map[string][]string)
	for category := range seen {
		root, sub, found := strings.Cut(category, "/")
		if _, ok := categories[root]; !ok {
			categories[root] = []string{}
		}
		if found && !lo.Contains(categories[root], sub) {
			categories[root] = append(categories[root], sub)
		}
	}
	return categories
}

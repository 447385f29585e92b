// Package browser implements the client-side orchestrator over the store
// registry: it accumulates paged search results across stores, de-duplicates
// and merges them under one sort order, unpacks composite projects and serves
// the merged category tree.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/download"
	"github.com/scenevault/scenevault/key"
	"github.com/scenevault/scenevault/log"
	"github.com/scenevault/scenevault/query"
	"github.com/scenevault/scenevault/registry"
	"github.com/scenevault/scenevault/store"
	"github.com/spf13/viper"
)

// CommonCategories is the built-in tree every public provider's categories
// merge into.
var CommonCategories = map[string][]string{
	"Animals":    {},
	"Featured":   {},
	"People":     {},
	"Scans":      {"Objects", "Places"},
	"Vegetation": {"Plant_Tropical"},
	"Vehicles":   {},
}

// ProjectsCategory is the synthetic category node collecting composite cloud
// projects as navigable sub-nodes.
const ProjectsCategory = "Cloud Projects"

// refreshNotifier is implemented by stores whose category set changes at
// runtime, such as the local crawler.
type refreshNotifier interface {
	OnRefresh(func())
}

// Model orchestrates paged searches over a registry and accumulates the
// merged result list the way a browsing UI consumes it.
type Model struct {
	registry *registry.Registry

	mu         sync.Mutex
	sort       asset.Sort
	keywords   []string
	vendor     string
	assets     []*asset.Asset
	projects   map[string]string
	page       int
	hasMore    bool
	searching  bool
	generation int
	cancel     context.CancelFunc

	onRefreshProvider func(provider string)
	onEnableProvider  func(provider string)
}

// New returns a browser model over the given registry and hooks into every
// store that notifies about category refreshes.
func New(r *registry.Registry) *Model {
	m := &Model{
		registry: r,
		sort:     asset.Sort{Field: asset.SortByName, Order: asset.SortAsc},
		projects: make(map[string]string),
		page:     1,
	}

	for _, s := range r.Stores() {
		if notifier, ok := s.(refreshNotifier); ok {
			id := s.ID()
			notifier.OnRefresh(func() {
				m.mu.Lock()
				fn := m.onRefreshProvider
				m.mu.Unlock()
				if fn != nil {
					fn(id)
				}
			})
		}
	}

	return m
}

// OnRefreshProvider registers the callback invoked when a provider's
// category set changes.
func (m *Model) OnRefreshProvider(fn func(provider string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRefreshProvider = fn
}

// OnEnableProvider registers the callback invoked when a provider is toggled.
func (m *Model) OnEnableProvider(fn func(provider string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnableProvider = fn
}

// NotifyEnableProvider reports a provider toggle from the host settings UI.
func (m *Model) NotifyEnableProvider(provider string) {
	m.mu.Lock()
	fn := m.onEnableProvider
	m.mu.Unlock()
	if fn != nil {
		fn(provider)
	}
}

// SetSort changes the merged sort order. Already accumulated assets keep
// their order; the next search applies the new one.
func (m *Model) SetSort(sort asset.Sort) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sort = sort
}

// SetKeywords sets the search terms for subsequent searches and records them
// in the suggestion history.
func (m *Model) SetKeywords(keywords []string) {
	m.mu.Lock()
	m.keywords = append([]string(nil), keywords...)
	m.mu.Unlock()

	for _, keyword := range keywords {
		if err := query.Remember(keyword, 1); err != nil {
			log.Warnf("failed to record query %q: %v", keyword, err)
		}
	}
}

// Suggestions returns historical query completions for a partial search input.
func (m *Model) Suggestions(partial string) []string {
	return query.SuggestMany(partial)
}

// SetVendor restricts subsequent searches to one provider; empty lifts the restriction.
func (m *Model) SetVendor(vendor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendor = vendor
}

// Reset forgets the accumulated results and restarts paging.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Model) reset() {
	m.assets = nil
	m.page = 1
	m.hasMore = false
}

// Assets returns a snapshot of the accumulated merged results.
func (m *Model) Assets() []*asset.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*asset.Asset(nil), m.assets...)
}

// HasMore reports whether any store still has pages to offer.
func (m *Model) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMore
}

// Searching reports whether a search is in flight.
func (m *Model) Searching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searching
}

// Search runs one paging step over the given categories: a fresh search when
// reset is set, otherwise the next page appended to the accumulated results.
// A newer search supersedes an in-flight one, whose late results are discarded.
func (m *Model) Search(ctx context.Context, categories []string, reset bool) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	ctx, m.cancel = context.WithCancel(ctx)

	if reset {
		m.reset()
	}
	m.hasMore = false
	m.generation++
	generation := m.generation
	m.searching = true

	criteria := asset.Criteria{
		Keywords:      append([]string(nil), m.keywords...),
		Page:          asset.Page{Number: m.page, Size: viper.GetInt(key.StorePageSize)},
		Sort:          mo.Some(m.sort),
		Filter:        asset.Filter{Categories: append([]string(nil), categories...)},
		SearchTimeout: viper.GetInt(key.StoreSearchTimeout),
	}
	vendor := m.vendor
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if generation == m.generation {
			m.searching = false
			m.page++
		}
		m.mu.Unlock()
	}()

	var vendors []string
	if vendor != "" {
		vendors = []string{vendor}
	}

	if viper.GetBool(key.StoreSingleProvider) {
		m.searchStepped(ctx, criteria, vendors, generation)
	} else {
		outcomes := m.registry.Search(ctx, criteria, vendors...)
		m.merge(outcomes, generation)
	}

	return ctx.Err()
}

// searchStepped queries each provider independently so a full page is
// requested from every store and results surface as each store answers.
func (m *Model) searchStepped(ctx context.Context, criteria asset.Criteria, vendors []string, generation int) {
	if len(vendors) == 0 {
		vendors = lo.Map(m.registry.Stores(), func(s store.Store, _ int) string {
			return s.ID()
		})
	}

	var wg sync.WaitGroup
	for _, vendor := range vendors {
		wg.Add(1)
		go func(vendor string) {
			defer wg.Done()
			outcomes := m.registry.Search(ctx, criteria.Clone(), vendor)
			m.merge(outcomes, generation)
		}(vendor)
	}
	wg.Wait()
}

// merge folds per-store outcomes into the accumulated list: full-record
// de-duplication with first-seen wins, batch sort, project slug collection
// and fusion unpacking. Results from a superseded search are discarded.
func (m *Model) merge(outcomes map[string]Outcome, generation int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return
	}

	var batch []*asset.Asset
	for _, outcome := range outcomes {
		for _, a := range outcome.Assets {
			if m.seen(batch, a) {
				continue
			}
			batch = append(batch, a)
		}
		if outcome.More {
			m.hasMore = true
		}
	}

	asset.SortAssets(batch, m.sort)

	for _, a := range batch {
		if a.IsProject() {
			if slug := a.Slug(); slug != "" {
				m.projects[a.Name] = slug
			}
		}
		m.assets = append(m.assets, a.Unpack()...)
	}
}

// Outcome mirrors the registry's per-store search outcome.
type Outcome = registry.Outcome

// seen reports whether an equal record was already accumulated or already
// sits in the current batch.
func (m *Model) seen(batch []*asset.Asset, a *asset.Asset) bool {
	for _, existing := range m.assets {
		if existing.Equal(a) {
			return true
		}
	}
	for _, existing := range batch {
		if existing.Equal(a) {
			return true
		}
	}
	return false
}

// Categories merges the common tree with every public provider's categories;
// private providers are namespaced under their own id instead of merged.
// Discovered composite projects surface as sub-nodes of the projects category.
func (m *Model) Categories() map[string][]string {
	merged := make(map[string][]string, len(CommonCategories))
	for root, subs := range CommonCategories {
		merged[root] = append([]string(nil), subs...)
	}

	private := make(map[string]bool)
	for _, provider := range m.registry.Providers() {
		private[provider.Name] = provider.Private
	}

	for id, categories := range m.registry.Categories() {
		if private[id] {
			var flattened []string
			for root, subs := range categories {
				flattened = append(flattened, root)
				for _, sub := range subs {
					flattened = append(flattened, root+"/"+sub)
				}
			}
			merged[id] = lo.Uniq(flattened)
			continue
		}

		for root, subs := range categories {
			merged[root] = lo.Uniq(append(merged[root], subs...))
		}
	}

	m.mu.Lock()
	slugs := lo.Values(m.projects)
	m.mu.Unlock()
	if len(slugs) > 0 {
		merged[ProjectsCategory] = lo.Uniq(slugs)
	}

	return merged
}

// Authenticate delegates a credential exchange to the named store.
func (m *Model) Authenticate(ctx context.Context, vendor, username, password string) error {
	s, ok := m.registry.Get(vendor).Get()
	if !ok {
		return store.ErrUnknownStore
	}
	return s.Authenticate(ctx, username, password)
}

// Download transfers an asset through its vendor store, short-circuiting to
// the already downloaded file when the history index still resolves.
func (m *Model) Download(ctx context.Context, a *asset.Asset, destDir string, onProgress store.ProgressFunc) (store.Result, error) {
	if path, ok := download.Lookup(a).Get(); ok {
		if onProgress != nil {
			onProgress(1)
		}
		return store.Result{Status: store.StatusOK, URL: path}, nil
	}

	s, ok := m.registry.Get(a.Vendor).Get()
	if !ok {
		return store.Result{Status: store.StatusNotFound}, store.ErrUnknownStore
	}

	started := time.Now()
	result, err := s.Download(ctx, a, destDir, onProgress)
	if err != nil {
		return result, err
	}

	if result.Status == store.StatusOK {
		log.Infof("downloaded %s in %s", a, time.Since(started).Round(time.Millisecond))
		if err := download.Remember(a, result.URL); err != nil {
			log.Warnf("failed to record download of %s: %v", a, err)
		}
	}

	return result, nil
}

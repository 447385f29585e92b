// Package registry aggregates the registered asset stores and fans searches
// out across them concurrently, gathering per-store outcomes instead of
// failing fast on the first broken vendor.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/log"
	"github.com/scenevault/scenevault/store"
)

// Outcome is one store's contribution to a fanned-out search.
type Outcome struct {
	Assets []*asset.Asset
	More   bool
}

// Registry holds the set of registered stores. It is an explicit instance so
// hosts can run several independent registries side by side.
type Registry struct {
	mu     sync.RWMutex
	stores []store.Store
}

// New returns a registry holding the given stores.
func New(stores ...store.Store) *Registry {
	r := &Registry{}
	for _, s := range stores {
		r.Register(s)
	}
	return r
}

// Register adds a store, replacing any previous store with the same id.
func (r *Registry) Register(s store.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stores = lo.Reject(r.stores, func(existing store.Store, _ int) bool {
		return existing.ID() == s.ID()
	})
	r.stores = append(r.stores, s)
}

// Unregister removes the store with the given id, if present.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stores = lo.Reject(r.stores, func(existing store.Store, _ int) bool {
		return existing.ID() == id
	})
}

// Clear removes every registered store.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = nil
}

// Stores returns the registered stores in registration order.
func (r *Registry) Stores() []store.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.Store(nil), r.stores...)
}

// Get finds a store by id.
func (r *Registry) Get(id string) mo.Option[store.Store] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.ID() == id {
			return mo.Some(s)
		}
	}
	return mo.None[store.Store]()
}

// Providers describes every registered store to the hosting UI.
func (r *Registry) Providers() []asset.Provider {
	return lo.Map(r.Stores(), func(s store.Store, _ int) asset.Provider {
		return s.Provider()
	})
}

// Categories gathers each store's category tree, keyed by store id.
func (r *Registry) Categories() map[string]map[string][]string {
	categories := make(map[string]map[string][]string)
	for _, s := range r.Stores() {
		categories[s.ID()] = s.Categories()
	}
	return categories
}

// Config invokes the store-specific settings action of the named store, if it has one.
func (r *Registry) Config(id string) {
	s, ok := r.Get(id).Get()
	if !ok {
		return
	}
	if configurable, ok := s.(store.Configurable); ok {
		configurable.Config()
	}
}

// Search fans the criteria out to the selected stores concurrently and
// gathers a per-store outcome. Every store receives its own deep copy of the
// criteria and its own timeout, so a slow or broken vendor degrades results
// but never breaks the search: its contribution is omitted with a logged
// warning and the other stores are unaffected.
func (r *Registry) Search(ctx context.Context, criteria asset.Criteria, vendors ...string) map[string]Outcome {
	criteria.Normalize()

	if len(vendors) == 0 {
		vendors = criteria.Vendors
	}
	selected := r.selectStores(vendors)

	timeout := time.Duration(criteria.SearchTimeout) * time.Second

	var (
		mu       sync.Mutex
		outcomes = make(map[string]Outcome, len(selected))
		wg       sync.WaitGroup
	)

	for _, s := range selected {
		wg.Add(1)
		go func(s store.Store) {
			defer wg.Done()

			storeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			assets, more, err := s.Search(storeCtx, criteria.Clone())
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				log.Warnf("store %s timed out after %s, omitted from search", s.ID(), timeout)
				return
			case errors.Is(err, context.Canceled):
				return
			case err != nil:
				log.Warnf("store %s omitted from search: %v", s.ID(), err)
				return
			}

			mu.Lock()
			outcomes[s.ID()] = Outcome{Assets: assets, More: more}
			mu.Unlock()
		}(s)
	}

	wg.Wait()
	return outcomes
}

// selectStores resolves the requested vendor ids to stores, or every
// registered store when no vendors are named. An unknown vendor is skipped
// with a nearest-match hint.
func (r *Registry) selectStores(vendors []string) []store.Store {
	all := r.Stores()
	if len(vendors) == 0 {
		return all
	}

	var selected []store.Store
	for _, vendor := range vendors {
		s, ok := r.Get(vendor).Get()
		if !ok {
			if nearest, found := r.nearest(vendor); found {
				log.Warnf("unknown store %q, did you mean %q?", vendor, nearest)
			} else {
				log.Warnf("unknown store %q", vendor)
			}
			continue
		}
		selected = append(selected, s)
	}
	return selected
}

func (r *Registry) nearest(id string) (string, bool) {
	ids := lo.Map(r.Stores(), func(s store.Store, _ int) string {
		return s.ID()
	})
	if len(ids) == 0 {
		return "", false
	}

	nearest := lo.MinBy(ids, func(a, b string) bool {
		return levenshtein.Distance(id, a) < levenshtein.Distance(id, b)
	})
	return nearest, true
}

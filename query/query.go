// Package query manages the persistence and retrieval of search query history
// and suggestions for the browser's search field.
package query

import (
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/key"
	"github.com/scenevault/scenevault/where"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// historyLimit bounds the persisted history; the least popular queries are
// evicted first.
const historyLimit = 100

type queryRecord struct {
	Rank     int    `json:"rank"`
	Query    string `json:"query"`
	LastUsed string `json:"last_used"`
}

var cacher = gache.New[map[string]*queryRecord](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var suggestionCache = make(map[string][]*queryRecord)

// Remember records a search query in the persistent history, bumping its
// popularity rank by the given weight.
func Remember(q string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*queryRecord)
	}

	record, ok := cached[q]
	if !ok {
		record = &queryRecord{Query: q}
		cached[q] = record
	}
	record.Rank += weight
	record.LastUsed = time.Now().Format(time.RFC3339)

	evict(cached)
	suggestionCache = make(map[string][]*queryRecord)

	return cacher.Set(cached)
}

// evict trims the history to historyLimit, dropping the lowest-ranked
// queries, oldest first among equals.
func evict(cached map[string]*queryRecord) {
	if len(cached) <= historyLimit {
		return
	}

	records := lo.Values(cached)
	slices.SortFunc(records, func(a, b *queryRecord) int {
		if a.Rank != b.Rank {
			return a.Rank - b.Rank
		}
		return strings.Compare(a.LastUsed, b.LastUsed)
	})

	for _, record := range records[:len(cached)-historyLimit] {
		delete(cached, record.Query)
	}
}

// Suggest returns the most relevant historical query suggestion for a partial input.
func Suggest(q string) mo.Option[string] {
	suggestions := SuggestMany(q)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns historical queries fuzzy-matching the partial input,
// most popular first; the closer fuzzy match wins among equally popular ones.
func SuggestMany(q string) []string {
	if !viper.GetBool(key.SearchShowQuerySuggestions) {
		return []string{}
	}

	q = sanitize(q)

	records, ok := suggestionCache[q]
	if !ok {
		cached, expired, err := cacher.Get()
		if err != nil || expired || cached == nil {
			return []string{}
		}

		for _, record := range cached {
			if fuzzy.Match(q, record.Query) {
				records = append(records, record)
			}
		}

		slices.SortFunc(records, func(a, b *queryRecord) int {
			if a.Rank != b.Rank {
				return b.Rank - a.Rank
			}
			return fuzzy.RankMatch(q, a.Query) - fuzzy.RankMatch(q, b.Query)
		})

		suggestionCache[q] = records
	}

	return lo.Map(records, func(r *queryRecord, _ int) string {
		return r.Query
	})
}

// Forget removes one query from the history.
func Forget(q string) error {
	q = sanitize(q)

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		return nil
	}

	delete(cached, q)
	suggestionCache = make(map[string][]*queryRecord)

	return cacher.Set(cached)
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}

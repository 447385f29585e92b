// Package download tracks completed asset transfers in a persisted index so a
// previously-downloaded asset resolves to its local file without a network round trip.
package download

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/where"
)

// Record maps one (vendor, identifier) pair to its local download path.
type Record struct {
	Vendor       string `json:"vendor"`
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	DownloadedAt string `json:"downloaded_at"`
}

var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.DownloadIndex(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// mu serializes writers; the index file is single-writer-at-a-time.
var mu sync.Mutex

// All returns every download record from the persistent index.
func All() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// Lookup resolves an asset's previously-downloaded local path. A record whose
// file no longer exists is forgotten and reported absent.
func Lookup(a *asset.Asset) mo.Option[string] {
	records, err := All()
	if err != nil {
		return mo.None[string]()
	}

	record, ok := records[a.Key()]
	if !ok {
		return mo.None[string]()
	}

	if exists, err := filesystem.API().Exists(record.Path); err != nil || !exists {
		_ = Forget(a)
		return mo.None[string]()
	}

	return mo.Some(record.Path)
}

// Remember persists the local path of a completed download.
func Remember(a *asset.Asset, path string) error {
	mu.Lock()
	defer mu.Unlock()

	records, err := All()
	if err != nil {
		return err
	}

	records[a.Key()] = &Record{
		Vendor:       a.Vendor,
		Identifier:   a.Identifier,
		Name:         a.Name,
		Path:         path,
		DownloadedAt: time.Now().Format(time.RFC3339),
	}

	return cacher.Set(records)
}

// Forget removes an asset's record from the index.
func Forget(a *asset.Asset) error {
	mu.Lock()
	defer mu.Unlock()

	records, err := All()
	if err != nil {
		return err
	}

	delete(records, a.Key())
	return cacher.Set(records)
}

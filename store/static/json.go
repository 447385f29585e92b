package static

import (
	"encoding/json"

	"github.com/samber/lo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/log"
)

// NewFromJSON returns a static store backed by a JSON catalog file of the
// shape {"assets": [...]}. An unreadable or malformed file yields an empty
// catalog; individual malformed entries are dropped, not fatal.
func NewFromJSON(id, path string) *Store {
	return New(id, loadCatalog(id, path))
}

func loadCatalog(id, path string) []*asset.Asset {
	raw, err := filesystem.API().ReadFile(path)
	if err != nil {
		log.Errorf("failed to read catalog %s: %v", path, err)
		return nil
	}

	var catalog struct {
		Assets []json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		log.Errorf("malformed catalog %s: %v", path, err)
		return nil
	}

	assets := make([]*asset.Asset, 0, len(catalog.Assets))
	for _, entry := range catalog.Assets {
		var a asset.Asset
		if err := json.Unmarshal(entry, &a); err != nil || a.Identifier == "" || a.Name == "" {
			log.Warnf("dropping malformed catalog entry in %s", path)
			continue
		}
		if a.Vendor == "" {
			a.Vendor = id
		}
		assets = append(assets, &a)
	}

	return lo.Filter(assets, func(a *asset.Asset, _ int) bool { return a.Price >= 0 })
}

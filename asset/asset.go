// Package asset defines the domain models shared by every store: the asset
// record, its composite sub-assets, the provider descriptor and the search criteria.
package asset

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// TokenParam is the query parameter vendors append to signed asset URLs.
// It changes between fetches of the same logical asset and is ignored by Equal.
const TokenParam = "auth_token"

// Fusion describes one downloadable sub-asset bundled inside a composite project asset.
type Fusion struct {
	ID          string `json:"fusion_id"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	Thumbnail   string `json:"preview_url"`
}

// Asset represents one discoverable asset as reported by a store.
// Records are constructed fresh on every store query and are never mutated in
// place, except to attach a locally-resolved download URL or an auth token
// appended to asset-bearing URLs after authentication.
type Asset struct {
	Identifier  string   `json:"identifier"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	PublishedAt string   `json:"published_at"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	Vendor      string   `json:"vendor"`
	DownloadURL string   `json:"download_url"`
	ProductURL  string   `json:"product_url"`
	Price       float64  `json:"price"`
	Thumbnail   string   `json:"thumbnail"`
	User        string   `json:"user"`
	Fusions     []Fusion `json:"fusions"`
}

func (a *Asset) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Vendor)
}

// Key returns the (vendor, identifier) pair that uniquely identifies an asset across stores.
func (a *Asset) Key() string {
	return fmt.Sprintf("%s (%s)", a.Identifier, a.Vendor)
}

// Clone returns a deep, independent copy of the asset.
func (a *Asset) Clone() *Asset {
	clone := *a
	clone.Categories = append([]string(nil), a.Categories...)
	clone.Tags = append([]string(nil), a.Tags...)
	clone.Fusions = append([]Fusion(nil), a.Fusions...)
	return &clone
}

// Equal reports full-record structural equality, the relation used for
// cross-store de-duplication. Volatile signed-URL tokens are stripped before
// comparison so two fetches of the same logical asset still match.
func (a *Asset) Equal(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.Identifier != other.Identifier ||
		a.Name != other.Name ||
		a.Version != other.Version ||
		a.PublishedAt != other.PublishedAt ||
		a.Vendor != other.Vendor ||
		a.ProductURL != other.ProductURL ||
		a.Price != other.Price ||
		a.User != other.User {
		return false
	}
	if stripToken(a.DownloadURL) != stripToken(other.DownloadURL) ||
		stripToken(a.Thumbnail) != stripToken(other.Thumbnail) {
		return false
	}
	if !equalStrings(a.Categories, other.Categories) || !equalStrings(a.Tags, other.Tags) {
		return false
	}
	if len(a.Fusions) != len(other.Fusions) {
		return false
	}
	for i := range a.Fusions {
		f, g := a.Fusions[i], other.Fusions[i]
		if f.ID != g.ID || f.Name != g.Name ||
			stripToken(f.DownloadURL) != stripToken(g.DownloadURL) ||
			stripToken(f.Thumbnail) != stripToken(g.Thumbnail) {
			return false
		}
	}
	return true
}

// IsProject reports whether the asset is a composite bundling sub-assets.
func (a *Asset) IsProject() bool {
	return len(a.Fusions) > 0
}

// Slug returns the trailing path segment of the product URL, used as a
// navigable category node for composite project assets.
func (a *Asset) Slug() string {
	if a.ProductURL == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(a.ProductURL, "/"), "/")
	return parts[len(parts)-1]
}

// Unpack expands a composite project into one synthetic asset per fusion,
// inheriting the parent's vendor, user and categories plus the project slug.
// Non-project assets unpack to themselves.
func (a *Asset) Unpack() []*Asset {
	if !a.IsProject() {
		return []*Asset{a}
	}

	categories := append([]string(nil), a.Categories...)
	if slug := a.Slug(); slug != "" {
		categories = append(categories, slug)
	}

	return lo.Map(a.Fusions, func(f Fusion, _ int) *Asset {
		return &Asset{
			Identifier:  f.ID,
			Name:        f.Name,
			PublishedAt: a.PublishedAt,
			Categories:  append([]string(nil), categories...),
			Vendor:      a.Vendor,
			DownloadURL: f.DownloadURL,
			ProductURL:  a.ProductURL,
			Thumbnail:   f.Thumbnail,
			User:        a.User,
		}
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stripToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if _, ok := q[TokenParam]; !ok {
		return raw
	}
	q.Del(TokenParam)
	u.RawQuery = q.Encode()
	return u.String()
}

// Sort fields accepted by SortAssets.
const (
	SortByName      = "name"
	SortByPublished = "published_at"
	SortByPrice     = "price"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort describes a single sort key and direction.
type Sort struct {
	Field string
	Order SortOrder
}

// SortAssets orders assets in place, stably, by the given key and direction.
// It is applied to the merged cross-store list; vendor-side sort parameters
// are only a fetch-ordering hint.
func SortAssets(assets []*Asset, by Sort) {
	field := by.Field
	if field == "created_at" { // vendor alias
		field = SortByPublished
	}

	less := func(a, b *Asset) bool {
		switch field {
		case SortByPublished:
			return a.PublishedAt < b.PublishedAt
		case SortByPrice:
			return a.Price < b.Price
		default:
			return a.Name < b.Name
		}
	}

	sort.SliceStable(assets, func(i, j int) bool {
		if by.Order == SortDesc {
			return less(assets[j], assets[i])
		}
		return less(assets[i], assets[j])
	})
}

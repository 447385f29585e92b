package browser

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/key"
	"github.com/scenevault/scenevault/registry"
	"github.com/scenevault/scenevault/store/static"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.StorePageSize, 50)
	viper.Set(key.StoreSearchTimeout, 1)
	viper.Set(key.StoreSingleProvider, false)
	viper.Set(key.SearchShowQuerySuggestions, false)
}

// catalogStore serves a fixed list under a chosen id and provider descriptor.
type catalogStore struct {
	*static.Store
	id       string
	provider asset.Provider
	more     bool
}

func (c *catalogStore) ID() string {
	if c.id != "" {
		return c.id
	}
	return c.Store.ID()
}

func (c *catalogStore) Provider() asset.Provider {
	return c.provider
}

func (c *catalogStore) Search(ctx context.Context, criteria asset.Criteria) ([]*asset.Asset, bool, error) {
	assets, more, err := c.Store.Search(ctx, criteria)
	return assets, more || c.more, err
}

func project(vendor string) *asset.Asset {
	return &asset.Asset{
		Identifier:  "proj-7",
		Name:        "Scan Session",
		Vendor:      vendor,
		ProductURL:  "https://cloud.example.com/projects/scan-session-7",
		Thumbnail:   "https://cloud.example.com/previews/proj-7.png",
		PublishedAt: "2023-04-01T00:00:00Z",
		Categories:  []string{"Scans"},
		User:        "artist",
		Fusions: []asset.Fusion{
			{ID: "f-1", Name: "fusion-raw", DownloadURL: "https://cloud.example.com/f/1", Thumbnail: "https://cloud.example.com/t/1"},
			{ID: "f-2", Name: "fusion-sharp", DownloadURL: "https://cloud.example.com/f/2", Thumbnail: "https://cloud.example.com/t/2"},
			{ID: "f-3", Name: "fusion-smooth", DownloadURL: "https://cloud.example.com/f/3", Thumbnail: "https://cloud.example.com/t/3"},
		},
	}
}

func TestBrowser(t *testing.T) {
	Convey("Given a browser over the reference catalog", t, func() {
		r := registry.New(static.NewDummy())
		m := New(r)

		Convey("A search sorted by price returns the catalog in order", func() {
			m.SetSort(asset.Sort{Field: asset.SortByPrice, Order: asset.SortAsc})
			So(m.Search(context.Background(), nil, true), ShouldBeNil)

			assets := m.Assets()
			So(len(assets), ShouldEqual, 5)

			prices := lo.Map(assets, func(a *asset.Asset, _ int) float64 { return a.Price })
			So(prices, ShouldResemble, []float64{10.99, 12.99, 13.99, 14.99, 15.99})
		})

		Convey("Searching again without reset never duplicates records", func() {
			So(m.Search(context.Background(), nil, true), ShouldBeNil)
			So(len(m.Assets()), ShouldEqual, 5)

			// The catalog has one page; repeating it adds nothing.
			m.mu.Lock()
			m.page = 1
			m.mu.Unlock()
			So(m.Search(context.Background(), nil, false), ShouldBeNil)
			So(len(m.Assets()), ShouldEqual, 5)
		})

		Convey("Results from a superseded search are discarded", func() {
			So(m.Search(context.Background(), nil, true), ShouldBeNil)
			stale := m.generation - 1

			m.merge(map[string]Outcome{
				"DUMMY": {Assets: []*asset.Asset{{Identifier: "late", Vendor: "DUMMY"}}},
			}, stale)

			So(len(m.Assets()), ShouldEqual, 5)
		})
	})

	Convey("Given overlapping catalogs across two stores", t, func() {
		shared := static.NewDummy()
		mirror := &catalogStore{
			Store:    static.NewDummy(),
			id:       "MIRROR",
			provider: asset.Provider{Name: "MIRROR"},
		}

		r := registry.New(shared, mirror)
		m := New(r)

		Convey("Identical records merge to one entry", func() {
			So(m.Search(context.Background(), nil, true), ShouldBeNil)
			So(len(m.Assets()), ShouldEqual, 5)
		})
	})

	Convey("Given a store serving a composite project", t, func() {
		cloud := &catalogStore{
			Store:    static.New("ArtecCloud", []*asset.Asset{project("ArtecCloud")}),
			provider: asset.Provider{Name: "ArtecCloud"},
		}
		r := registry.New(cloud)
		m := New(r)

		So(m.Search(context.Background(), nil, true), ShouldBeNil)

		Convey("The project unpacks into one asset per fusion", func() {
			assets := m.Assets()
			So(len(assets), ShouldEqual, 3)

			for _, a := range assets {
				So(a.Vendor, ShouldEqual, "ArtecCloud")
				So(a.User, ShouldEqual, "artist")
				So(a.Categories, ShouldContain, "Scans")
				So(a.Categories, ShouldContain, "scan-session-7")
			}
		})

		Convey("The project surfaces as a navigable category node", func() {
			categories := m.Categories()
			So(categories, ShouldContainKey, ProjectsCategory)
			So(categories[ProjectsCategory], ShouldContain, "scan-session-7")
		})
	})

	Convey("Given public and private providers", t, func() {
		public := &catalogStore{
			Store: static.New("ACME", []*asset.Asset{
				{Identifier: "v-1", Name: "truck", Vendor: "ACME", Categories: []string{"Vehicles/Trucks"}},
			}),
			provider: asset.Provider{Name: "ACME", EnableCommonCategories: true},
		}
		private := &catalogStore{
			Store: static.New("My Assets", []*asset.Asset{
				{Identifier: "l-1", Name: "palm", Vendor: "My Assets", Categories: []string{"Vegetation/Palms"}},
			}),
			provider: asset.Provider{Name: "My Assets", Private: true},
		}

		r := registry.New(public, private)
		m := New(r)

		Convey("Public categories merge into the common tree", func() {
			categories := m.Categories()
			So(categories["Vehicles"], ShouldContain, "Trucks")
			So(categories["Vegetation"], ShouldContain, "Plant_Tropical")
		})

		Convey("Private categories are namespaced under the provider", func() {
			categories := m.Categories()
			So(categories, ShouldContainKey, "My Assets")
			So(categories["My Assets"], ShouldContain, "Vegetation/Palms")
			So(categories["Vegetation"], ShouldNotContain, "Palms")
		})

		Convey("HasMore is true when any store offers more", func() {
			public.more = true
			So(m.Search(context.Background(), nil, true), ShouldBeNil)
			So(m.HasMore(), ShouldBeTrue)
		})
	})
}

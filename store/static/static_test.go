package static

import (
	"context"
	"testing"

	"github.com/samber/mo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSearch(t *testing.T) {
	Convey("Given the reference catalog", t, func() {
		s := NewDummy()
		ctx := context.Background()

		Convey("Searching without criteria returns everything", func() {
			assets, _, err := s.Search(ctx, asset.DefaultCriteria())
			So(err, ShouldBeNil)
			So(len(assets), ShouldEqual, 5)
		})

		Convey("Filtering by category narrows the result", func() {
			criteria := asset.DefaultCriteria()
			criteria.Filter.Categories = []string{"/vehicles/cars/sedan"}
			assets, _, err := s.Search(ctx, criteria)
			So(err, ShouldBeNil)
			So(len(assets), ShouldEqual, 3)
		})

		Convey("Keyword search with name sort descending", func() {
			criteria := asset.DefaultCriteria()
			criteria.Keywords = []string{"sedan"}
			criteria.Sort = mo.Some(asset.Sort{Field: asset.SortByName, Order: asset.SortDesc})
			assets, _, err := s.Search(ctx, criteria)
			So(err, ShouldBeNil)

			names := make([]string, len(assets))
			for i, a := range assets {
				names[i] = a.Name
			}
			So(names, ShouldResemble, []string{"car-sedan-3", "car-sedan-2", "car-sedan-1"})
		})

		Convey("Keyword search sorted by price ascending returns the documented order", func() {
			criteria := asset.DefaultCriteria()
			criteria.Keywords = []string{"cars"}
			criteria.Sort = mo.Some(asset.Sort{Field: asset.SortByPrice, Order: asset.SortAsc})
			assets, _, err := s.Search(ctx, criteria)
			So(err, ShouldBeNil)

			prices := make([]float64, len(assets))
			for i, a := range assets {
				prices[i] = a.Price
			}
			So(prices, ShouldResemble, []float64{10.99, 12.99, 13.99, 14.99, 15.99})
		})

		Convey("Pagination slices 1-based pages and reports more only on full pages", func() {
			criteria := asset.DefaultCriteria()
			criteria.Page = asset.Page{Number: 1, Size: 3}
			assets, more, err := s.Search(ctx, criteria)
			So(err, ShouldBeNil)
			So(len(assets), ShouldEqual, 3)
			So(more, ShouldBeTrue)

			criteria.Page.Number = 2
			assets, more, err = s.Search(ctx, criteria)
			So(err, ShouldBeNil)
			So(len(assets), ShouldEqual, 2)
			So(more, ShouldBeFalse)
		})

		Convey("Categories are derived from the catalog", func() {
			categories := s.Categories()
			So(categories, ShouldContainKey, "vehicles")
			So(categories["vehicles"], ShouldContain, "cars/suv")
			So(categories["vehicles"], ShouldContain, "cars/sedan")
		})
	})
}

func TestNewFromJSON(t *testing.T) {
	Convey("Given a JSON catalog file", t, func() {
		path := "/catalog.json"
		content := `{
			"assets": [
				{
					"identifier": "a-1",
					"name": "Astronaut",
					"published_at": "2020-12-15T17:49:22+00:00",
					"categories": ["characters/clothing/work"],
					"vendor": "ACME",
					"thumbnail": "https://images.com/astronaut.png",
					"price": 10.99
				},
				{"name": "missing identifier, dropped"}
			]
		}`
		So(filesystem.API().WriteFile(path, []byte(content), 0644), ShouldBeNil)

		Convey("Valid entries load, malformed entries are dropped", func() {
			s := NewFromJSON("JSON", path)
			assets, _, err := s.Search(context.Background(), asset.DefaultCriteria())
			So(err, ShouldBeNil)
			So(len(assets), ShouldEqual, 1)
			So(assets[0].Name, ShouldEqual, "Astronaut")
		})

		Convey("An unreadable file yields an empty catalog, not an error", func() {
			s := NewFromJSON("JSON", "/nope.json")
			assets, more, err := s.Search(context.Background(), asset.DefaultCriteria())
			So(err, ShouldBeNil)
			So(assets, ShouldBeEmpty)
			So(more, ShouldBeFalse)
		})
	})
}

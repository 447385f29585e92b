package local

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/mo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.LocalFileSuffixes, []string{".usd", ".usda", ".usdc", ".usdz"})
	viper.Set(key.LocalThumbnailSize, 256)
	viper.Set(key.LocalCategoryDepth, 3)
	viper.Set(key.LocalSearchSubFolders, true)
	viper.Set(key.DownloadTimeout, 600)
}

// plantTree writes 17 usd files with thumbnails under
// root/Vegetation/Plant_Tropical, plus one file without a thumbnail.
func plantTree(root string) {
	fs := filesystem.API()
	dir := root + "/Vegetation/Plant_Tropical"
	thumbs := dir + "/.thumbs/256x256"

	for i := 1; i <= 17; i++ {
		name := fmt.Sprintf("Palm_%02d.usd", i)
		if err := fs.WriteFile(dir+"/"+name, []byte("usd"), 0644); err != nil {
			panic(err)
		}
		if err := fs.WriteFile(thumbs+"/"+name+".png", []byte("png"), 0644); err != nil {
			panic(err)
		}
	}

	// No thumbnail for this one.
	if err := fs.WriteFile(dir+"/Bare.usd", []byte("usd"), 0644); err != nil {
		panic(err)
	}
}

func TestLocalStore(t *testing.T) {
	Convey("Given a crawled folder of plant assets", t, func() {
		root := "/assets"
		plantTree(root)

		s := New(root)
		s.Collect(root)

		Convey("Assets without thumbnails are excluded", func() {
			all, _, err := s.Search(context.Background(), asset.DefaultCriteria())
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 17)
			for _, a := range all {
				So(a.Thumbnail, ShouldNotBeEmpty)
			}
		})

		Convey("Category filtering pages through all matches", func() {
			criteria := asset.DefaultCriteria()
			criteria.Filter.Categories = []string{"Vegetation/Plant_Tropical"}
			criteria.Page = asset.Page{Number: 1, Size: 10}

			page1, more, err := s.Search(context.Background(), criteria)
			So(err, ShouldBeNil)
			So(len(page1), ShouldEqual, 10)
			So(more, ShouldBeTrue)

			criteria.Page.Number = 2
			page2, more, err := s.Search(context.Background(), criteria)
			So(err, ShouldBeNil)
			So(len(page2), ShouldEqual, 7)
			So(more, ShouldBeFalse)
		})

		Convey("Keyword search narrows by file name", func() {
			criteria := asset.DefaultCriteria()
			criteria.Keywords = []string{"Palm_03"}

			found, _, err := s.Search(context.Background(), criteria)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 1)
			So(found[0].Name, ShouldEqual, "Palm_03.usd")
		})

		Convey("Sorting by name is applied to the page", func() {
			criteria := asset.DefaultCriteria()
			criteria.Sort = mo.Some(asset.Sort{Field: asset.SortByName, Order: asset.SortDesc})
			criteria.Page = asset.Page{Number: 1, Size: 5}

			page, _, err := s.Search(context.Background(), criteria)
			So(err, ShouldBeNil)
			So(page[0].Name, ShouldEqual, "Palm_17.usd")
		})

		Convey("Categories reflect the folder layout", func() {
			categories := s.Categories()
			So(categories, ShouldContainKey, "Vegetation")
			So(categories["Vegetation"], ShouldContain, "Plant_Tropical")
		})

		Convey("Download copies the file and reports completion", func() {
			criteria := asset.DefaultCriteria()
			criteria.Keywords = []string{"Palm_01"}
			found, _, err := s.Search(context.Background(), criteria)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 1)

			var final float64
			result, err := s.Download(context.Background(), found[0], "/downloads", func(p float64) {
				final = p
			})
			So(err, ShouldBeNil)
			So(result.Status.String(), ShouldEqual, "ok")
			So(result.URL, ShouldEqual, "/downloads/Palm_01.usd")
			So(final, ShouldEqual, 1.0)

			exists, err := filesystem.API().Exists(result.URL)
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})

		Convey("Removing the folder drops its assets and notifies listeners", func() {
			notified := false
			s.OnRefresh(func() { notified = true })

			s.SetFolders(nil)

			all, _, err := s.Search(context.Background(), asset.DefaultCriteria())
			So(err, ShouldBeNil)
			So(all, ShouldBeEmpty)
			So(notified, ShouldBeTrue)
		})
	})
}

package config

import (
	"testing"

	"github.com/scenevault/scenevault/filesystem"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("store.page.size")
			So(result, ShouldEqual, "store_page_size")
		})
	})
}

func TestFieldEnv(t *testing.T) {
	Convey("Field Env", t, func() {
		f := Field{Key: "store.page_size"}
		So(f.Env(), ShouldEqual, "SCENEVAULT_STORE_PAGE_SIZE")
	})
}

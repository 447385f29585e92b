package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

func init() {
	filesystem.SetMemMapFs()
	keyring.MockInit()
	viper.Set(key.CloudProviderID, "ArtecCloud")
	viper.Set(key.CloudMaxCountPerPage, 24)
	viper.Set(key.CloudKeepPageSize, false)
	viper.Set(key.DownloadTimeout, 600)
	viper.Set(key.DownloadUnzip, false)
}

const catalogSize = 30

// vendor fakes the remote API: credential exchange, cursor-paged search,
// signed-URL resolution and the file endpoint.
func vendor() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user[email]") != "artist@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprint(w, `{"auth_token": "signed-token", "access_token": "bearer-token"}`)
	})

	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		cursor, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))

		var projects []map[string]any
		for i := cursor; i < cursor+count && i < catalogSize; i++ {
			projects = append(projects, map[string]any{
				"id":                    i + 1,
				"uid":                   fmt.Sprintf("uid-%d", i+1),
				"name":                  fmt.Sprintf("Scan %02d", i+1),
				"created_at":            "2023-04-01T00:00:00Z",
				"preview_presigned_url": fmt.Sprintf("https://cdn.example.com/%d.png", i+1),
				"is_downloadable":       true,
			})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"projects":    projects,
			"total_count": catalogSize,
		})
	})

	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		host := "http://" + r.Host
		fmt.Fprintf(w, `{"usdz": {"url": "%s/files/scan.usdz?signature=abc"}}`, host)
	})

	mux.HandleFunc("/files/scan.usdz", func(w http.ResponseWriter, r *http.Request) {
		payload := make([]byte, 4096)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	})

	return httptest.NewServer(mux)
}

func newTestStore(server *httptest.Server) *Store {
	viper.Set(key.CloudSearchURL, server.URL+"/api/search")
	viper.Set(key.CloudModelsURL, server.URL+"/api/projects")
	viper.Set(key.CloudAuthorizeURL, server.URL+"/oauth/authorize")
	return New()
}

func TestPickThumbnail(t *testing.T) {
	Convey("Thumbnail selection prefers the smallest image above the minimum edge", t, func() {
		thumbs := []thumbnailItem{
			{URL: "tiny", Width: 64, Height: 64},
			{URL: "large", Width: 1024, Height: 1024},
			{URL: "fit", Width: 512, Height: 512},
		}

		So(pickThumbnail(thumbs, 256), ShouldEqual, "fit")
		So(pickThumbnail(thumbs[:1], 256), ShouldEqual, "tiny")
		So(pickThumbnail(nil, 256), ShouldBeEmpty)
	})
}

func TestCloudStore(t *testing.T) {
	server := vendor()
	defer server.Close()

	Convey("Given the remote vendor store", t, func() {
		s := newTestStore(server)

		Convey("Bad credentials leave the store unauthenticated", func() {
			s.Logout()
			err := s.Authenticate(context.Background(), "wrong@example.com", "nope")
			So(err, ShouldEqual, ErrUnauthorized)
			So(s.Authorized(), ShouldBeFalse)
		})

		Convey("Good credentials grant a session", func() {
			So(s.Authenticate(context.Background(), "artist@example.com", "secret"), ShouldBeNil)
			So(s.Authorized(), ShouldBeTrue)

			Convey("The session survives a store restart via the keyring", func() {
				restarted := New()
				So(restarted.Authorized(), ShouldBeTrue)
			})

			Convey("Search pages through the API capped at the vendor maximum", func() {
				criteria := asset.DefaultCriteria()
				criteria.Page = asset.Page{Number: 1, Size: catalogSize}

				assets, more, err := s.Search(context.Background(), criteria)
				So(err, ShouldBeNil)
				So(len(assets), ShouldEqual, catalogSize)

				Convey("An exactly consumed catalog still reports more", func() {
					So(more, ShouldBeTrue)
				})

				Convey("The following page comes back empty and settles it", func() {
					criteria.Page.Number = 2
					next, more, err := s.Search(context.Background(), criteria)
					So(err, ShouldBeNil)
					So(next, ShouldBeEmpty)
					So(more, ShouldBeFalse)
				})

				Convey("The token is attached to every asset-bearing URL", func() {
					for _, a := range assets {
						So(a.Thumbnail, ShouldContainSubstring, "auth_token=signed-token")
						So(a.DownloadURL, ShouldContainSubstring, "auth_token=signed-token")
					}
				})

				Convey("Download resolves the signed URL and streams the file", func() {
					So(filesystem.API().RemoveAll("/downloads"), ShouldBeNil)

					var final float64
					result, err := s.Download(context.Background(), assets[0], "/downloads", func(p float64) {
						final = p
					})
					So(err, ShouldBeNil)
					So(result.Status.String(), ShouldEqual, "ok")
					So(result.URL, ShouldEqual, "/downloads/scan.usdz")
					So(final, ShouldEqual, 1.0)

					Convey("A second download avoids the filename collision", func() {
						again, err := s.Download(context.Background(), assets[1], "/downloads", nil)
						So(err, ShouldBeNil)
						So(again.URL, ShouldEqual, "/downloads/scan_2.usdz")
					})
				})
			})
		})
	})
}

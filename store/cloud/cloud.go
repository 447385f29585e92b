// Package cloud implements the remote paginated vendor store. It translates
// search criteria into the vendor's query parameters, pages through the API
// capped at the vendor's per-page maximum, and downloads assets through the
// vendor's signed-URL resolution step.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/auth"
	"github.com/scenevault/scenevault/constant"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/key"
	"github.com/scenevault/scenevault/log"
	"github.com/scenevault/scenevault/network"
	"github.com/scenevault/scenevault/store"
	"github.com/scenevault/scenevault/util"
	"github.com/spf13/viper"
)

// EnableSetting is the settings name the host observes to toggle this provider.
const EnableSetting = "cloud.enable"

var (
	// ErrUnauthorized reports a rejected credential exchange.
	ErrUnauthorized = errors.New("authentication rejected")

	// ErrNoDownload reports a signed-URL resolution that yielded no usable file.
	ErrNoDownload = errors.New("asset has no downloadable file")
)

// session is the vendor's credential grant. The auth token signs asset URLs
// as a query parameter; the access token authorizes the download API.
type session struct {
	AuthToken   string `json:"auth_token"`
	AccessToken string `json:"access_token"`
}

// Store queries the remote vendor API.
type Store struct {
	id           string
	searchURL    string
	modelsURL    string
	authorizeURL string

	maxCountPerPage int
	keepPageSize    bool

	mu      sync.Mutex
	session session
}

// New returns a cloud store configured from settings, with any previously
// granted session restored from the system keyring.
func New() *Store {
	s := &Store{
		id:              viper.GetString(key.CloudProviderID),
		searchURL:       viper.GetString(key.CloudSearchURL),
		modelsURL:       viper.GetString(key.CloudModelsURL),
		authorizeURL:    viper.GetString(key.CloudAuthorizeURL),
		maxCountPerPage: viper.GetInt(key.CloudMaxCountPerPage),
		keepPageSize:    viper.GetBool(key.CloudKeepPageSize),
	}

	if raw, err := auth.Token(s.id); err == nil {
		var restored session
		if err := json.Unmarshal([]byte(raw), &restored); err == nil {
			s.session = restored
		}
	}

	return s
}

func (s *Store) ID() string {
	return s.id
}

func (s *Store) Provider() asset.Provider {
	return asset.Provider{
		Name:                   s.id,
		EnableCommonCategories: true,
		EnableSetting:          EnableSetting,
	}
}

// Categories is empty: the vendor publishes no category tree of its own, the
// browser serves it the common categories instead.
func (s *Store) Categories() map[string][]string {
	return map[string][]string{}
}

func (s *Store) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.AuthToken != ""
}

// Authenticate exchanges credentials for a session grant. A transport error
// or a rejected grant leaves the store unauthenticated; nothing is retried
// and a bad token is never cached as valid.
func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	endpoint, err := url.Parse(s.authorizeURL)
	if err != nil {
		return err
	}

	q := endpoint.Query()
	q.Set("user[email]", username)
	q.Set("user[password]", password)
	endpoint.RawQuery = q.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return err
	}

	response, err := network.Client.Do(request)
	if err != nil {
		s.clearSession()
		return err
	}
	defer response.Body.Close()

	var granted session
	if err := json.NewDecoder(response.Body).Decode(&granted); err != nil {
		s.clearSession()
		return err
	}
	if response.StatusCode != http.StatusOK || granted.AuthToken == "" {
		s.clearSession()
		return ErrUnauthorized
	}

	s.mu.Lock()
	s.session = granted
	s.mu.Unlock()

	if raw, err := json.Marshal(granted); err == nil {
		if err := auth.SetToken(s.id, string(raw)); err != nil {
			log.Warnf("failed to persist %s session: %v", s.id, err)
		}
	}

	return nil
}

// Logout forgets the session grant, both in memory and in the keyring.
func (s *Store) Logout() {
	s.clearSession()
	if err := auth.DeleteToken(s.id); err != nil {
		log.Warnf("failed to remove %s session: %v", s.id, err)
	}
}

func (s *Store) clearSession() {
	s.mu.Lock()
	s.session = session{}
	s.mu.Unlock()
}

func (s *Store) authToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.AuthToken
}

func (s *Store) accessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.AccessToken
}

// searchResponse is one page of the vendor search API.
type searchResponse struct {
	Projects   []projectItem `json:"projects"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
}

type projectItem struct {
	ID           int64           `json:"id"`
	UID          string          `json:"uid"`
	Name         string          `json:"name"`
	CreatedAt    string          `json:"created_at"`
	Categories   []string        `json:"categories"`
	PreviewURL   string          `json:"preview_presigned_url"`
	Thumbnails   []thumbnailItem `json:"thumbnails"`
	ViewerURL    string          `json:"viewer_url"`
	User         string          `json:"user"`
	Price        float64         `json:"price"`
	Downloadable bool            `json:"is_downloadable"`
	Fusions      []asset.Fusion  `json:"fusions"`
}

type thumbnailItem struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// pickThumbnail chooses among vendor-supplied images: the smallest image at
// or above the configured minimum edge, falling back to the largest one below it.
func pickThumbnail(thumbnails []thumbnailItem, minSize int) string {
	var best, fallback *thumbnailItem
	for i := range thumbnails {
		t := &thumbnails[i]
		if t.URL == "" {
			continue
		}
		if t.Width >= minSize && t.Height >= minSize {
			if best == nil || (t.Width < best.Width && t.Height < best.Height) {
				best = t
			}
		} else if fallback == nil || (t.Width > fallback.Width && t.Height > fallback.Height) {
			fallback = t
		}
	}

	if best != nil {
		return best.URL
	}
	if fallback != nil {
		return fallback.URL
	}
	return ""
}

// Search pages through the vendor API until the requested count is satisfied
// or the vendor runs out of results. Page requests are capped at the vendor's
// documented per-page maximum and issued strictly in cursor order.
//
// The vendor's own has-more signal (total_count vs. consumed count) is
// treated as untrusted at exact page boundaries: an exactly-full final page
// still reports more=true and the caller's next page, coming back empty,
// settles it.
func (s *Store) Search(ctx context.Context, criteria asset.Criteria) ([]*asset.Asset, bool, error) {
	criteria.Normalize()

	required := criteria.Page.Size
	if s.keepPageSize {
		required = util.Min(required, s.maxCountPerPage)
	}
	cursor := (criteria.Page.Number - 1) * required

	params := url.Values{}
	params.Set("type", "models")
	if token := s.authToken(); token != "" {
		params.Set(asset.TokenParam, token)
	}
	if terms := criteria.Terms(); terms != "" {
		params.Set("term", terms)
	}
	if slug, ok := criteria.CategorySlug().Get(); ok {
		params.Set("filters", slug)
	}
	if sort, ok := criteria.Sort.Get(); ok {
		params.Set("sort_field", vendorSortField(sort.Field))
		params.Set("sort_direction", string(sort.Order))
	}

	var assets []*asset.Asset
	more := true

	for required > 0 {
		count := util.Min(s.maxCountPerPage, required)

		page, vendorMore, err := s.searchPage(ctx, params, cursor, count)
		if err != nil {
			return nil, false, err
		}

		// An empty page means exhausted, whatever the vendor claims.
		if len(page) == 0 {
			more = false
			break
		}

		assets = append(assets, page...)
		cursor += count
		required -= count

		if !vendorMore && len(page) < count {
			more = false
			break
		}
	}

	return assets, more, nil
}

func (s *Store) searchPage(ctx context.Context, base url.Values, cursor, count int) ([]*asset.Asset, bool, error) {
	endpoint, err := url.Parse(s.searchURL)
	if err != nil {
		return nil, false, err
	}

	params, _ := url.ParseQuery(base.Encode())
	params.Set("cursor", strconv.Itoa(cursor))
	params.Set("count", strconv.Itoa(count))
	endpoint.RawQuery = params.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, false, err
	}
	request.Header.Set("User-Agent", constant.UserAgent)

	response, err := network.Client.Do(request)
	if err != nil {
		return nil, false, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%s search returned %s", s.id, response.Status)
	}

	var result searchResponse
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, false, err
	}

	assets := make([]*asset.Asset, 0, len(result.Projects))
	for _, item := range result.Projects {
		if a := s.newAsset(item); a != nil {
			assets = append(assets, a)
		}
	}

	consumed := cursor + len(result.Projects)
	return assets, result.TotalCount > consumed, nil
}

// newAsset maps one vendor record; records without a thumbnail are dropped.
// The auth token is attached to every asset-bearing URL, not just the search
// call, so the UI can fetch thumbnails and files with the same grant.
func (s *Store) newAsset(item projectItem) *asset.Asset {
	preview := item.PreviewURL
	if preview == "" {
		preview = pickThumbnail(item.Thumbnails, viper.GetInt(key.CloudMinThumbnail))
	}
	if preview == "" {
		return nil
	}

	var downloadURL string
	if item.Downloadable {
		downloadURL = fmt.Sprintf("%s/%s/download", strings.TrimRight(s.modelsURL, "/"), item.UID)
	}

	token := s.authToken()
	fusions := make([]asset.Fusion, len(item.Fusions))
	for i, f := range item.Fusions {
		fusions[i] = asset.Fusion{
			ID:          f.ID,
			Name:        f.Name,
			DownloadURL: s.withToken(f.DownloadURL, token),
			Thumbnail:   s.withToken(f.Thumbnail, token),
		}
	}

	return &asset.Asset{
		Identifier:  strconv.FormatInt(item.ID, 10),
		Name:        item.Name,
		PublishedAt: item.CreatedAt,
		Categories:  item.Categories,
		Vendor:      s.id,
		DownloadURL: s.withToken(downloadURL, token),
		ProductURL:  item.ViewerURL,
		Price:       item.Price,
		Thumbnail:   s.withToken(preview, token),
		User:        item.User,
		Fusions:     fusions,
	}
}

func (s *Store) withToken(raw, token string) string {
	if raw == "" || token == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(asset.TokenParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}

func vendorSortField(field string) string {
	if field == asset.SortByPublished {
		return "created_at"
	}
	return field
}

// Download resolves the asset's signed file URL through the download API and
// streams it into destDir under the no-progress liveness policy.
func (s *Store) Download(ctx context.Context, a *asset.Asset, destDir string, onProgress store.ProgressFunc) (store.Result, error) {
	if a == nil || a.DownloadURL == "" {
		return store.Result{Status: store.StatusNotFound}, nil
	}

	window := time.Duration(viper.GetInt(key.DownloadTimeout)) * time.Second
	return store.Transfer(ctx, window, onProgress, func(ctx context.Context, report store.ProgressFunc) (store.Result, error) {
		signed, err := s.resolveDownload(ctx, a)
		if err != nil {
			return store.Result{Status: store.StatusNotFound}, err
		}
		return s.fetch(ctx, a, signed, destDir, report)
	})
}

// resolveDownload exchanges the asset's download URL for a signed file URL.
type downloadGrant struct {
	USDZ struct {
		URL string `json:"url"`
	} `json:"usdz"`
}

func (s *Store) resolveDownload(ctx context.Context, a *asset.Asset) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, a.DownloadURL, nil)
	if err != nil {
		return "", err
	}
	request.Header.Set("Authorization", "Bearer "+s.accessToken())

	response, err := network.Client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s download resolution returned %s", s.id, response.Status)
	}

	var grant downloadGrant
	if err := json.NewDecoder(response.Body).Decode(&grant); err != nil {
		return "", err
	}
	if grant.USDZ.URL == "" {
		log.Errorf("[%s] no downloadable file behind %s", a.Name, a.DownloadURL)
		return "", ErrNoDownload
	}

	return grant.USDZ.URL, nil
}

func (s *Store) fetch(ctx context.Context, a *asset.Asset, signed, destDir string, report store.ProgressFunc) (store.Result, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, signed, nil)
	if err != nil {
		return store.Result{Status: store.StatusError}, err
	}

	response, err := network.Download.Do(request)
	if err != nil {
		return store.Result{Status: store.StatusError}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		log.Errorf("[%s] access denied: %s", a.Name, signed)
		return store.Result{Status: store.StatusAccessDenied}, nil
	}

	dest := s.destination(a, signed, destDir)
	out, err := filesystem.API().Create(dest)
	if err != nil {
		return store.Result{Status: store.StatusError}, err
	}
	defer out.Close()

	size := response.ContentLength
	if size <= 0 {
		report(0)
	}

	var copied int64
	buf := make([]byte, 512*1024)
	for {
		n, err := response.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return store.Result{Status: store.StatusError}, werr
			}
			copied += int64(n)
			if size > 0 {
				report(float64(copied) / float64(size))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return store.Result{Status: store.StatusError}, err
		}
	}
	report(1)

	if viper.GetBool(key.DownloadUnzip) && strings.HasSuffix(dest, ".zip") {
		if unpacked, err := unzip(dest); err == nil {
			dest = unpacked
		} else {
			log.Warnf("failed to unzip %s: %v", dest, err)
		}
	}

	return store.Result{Status: store.StatusOK, URL: dest}, nil
}

// destination derives the local filename from the signed URL's path and
// disambiguates with the asset identifier when the file already exists.
func (s *Store) destination(a *asset.Asset, signed, destDir string) string {
	base := util.SanitizeFilename(filepath.Base(strings.SplitN(signed, "?", 2)[0]))
	dest := filepath.ToSlash(filepath.Join(destDir, base))

	exists, err := filesystem.API().Exists(dest)
	if err != nil || !exists {
		return dest
	}

	ext := filepath.Ext(dest)
	return strings.TrimSuffix(dest, ext) + "_" + a.Identifier + ext
}

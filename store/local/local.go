// Package local implements the filesystem-backed asset store: an incremental
// crawler over a configurable set of root folders, persisted to an on-disk
// index and re-validated on startup.
package local

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/key"
	"github.com/scenevault/scenevault/log"
	"github.com/scenevault/scenevault/store"
	"github.com/scenevault/scenevault/store/static"
	"github.com/scenevault/scenevault/util"
	"github.com/scenevault/scenevault/where"
	"github.com/spf13/viper"
)

// ProviderID identifies the local store; its categories stay private to it.
const ProviderID = "My Assets"

// Settings names the host observes for this provider (see asset.Provider).
const (
	RefreshSetting = "local.refresh"
	EnableSetting  = "local.enable"
)

// index is the persisted crawl state: root folder -> subfolder -> assets.
type index = map[string]map[string][]*asset.Asset

// Store is the local filesystem asset provider.
type Store struct {
	mu      sync.Mutex
	folders []string
	assets  index

	cacher    *gache.Cache[index]
	onRefresh []func()
}

// New returns a local store over the given root folders (defaulting to the
// configured folder set) with previously crawled results loaded from the
// persisted index. Call Start to schedule the re-crawl.
func New(folders ...string) *Store {
	if len(folders) == 0 {
		folders = viper.GetStringSlice(key.LocalFolders)
	}

	s := &Store{
		folders: folders,
		assets:  make(index),
		cacher: gache.New[index](&gache.Options{
			Path:       where.AssetIndex(),
			FileSystem: &filesystem.GacheFs{},
		}),
	}
	s.load()
	return s
}

// Start schedules the background re-crawl of all configured folders. It never
// blocks the caller; listeners registered with OnRefresh observe progress.
func (s *Store) Start() {
	folders := append([]string(nil), s.folders...)
	go s.Collect(folders...)
}

func (s *Store) ID() string {
	return ProviderID
}

func (s *Store) Provider() asset.Provider {
	return asset.Provider{
		Name:           ProviderID,
		Private:        true,
		Configurable:   true,
		RefreshSetting: RefreshSetting,
		EnableSetting:  EnableSetting,
	}
}

func (s *Store) Authorized() bool {
	return true
}

func (s *Store) Authenticate(context.Context, string, string) error {
	return nil
}

// Config is the store-specific settings action; the host surfaces the folder
// picker, the store only exposes the hook.
func (s *Store) Config() {}

// OnRefresh registers a listener notified whenever the category set changes,
// replacing the original settings-bus push notifications with an explicit observer API.
func (s *Store) OnRefresh(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = append(s.onRefresh, fn)
}

// Categories returns the category tree derived from all cached assets.
func (s *Store) Categories() map[string][]string {
	return static.Categorize(s.flatten())
}

// Search filters the cached crawl results; it never blocks on an in-flight crawl.
func (s *Store) Search(_ context.Context, criteria asset.Criteria) ([]*asset.Asset, bool, error) {
	criteria.Normalize()

	prefixMatch := viper.GetBool(key.LocalSearchSubFolders)
	selected := static.FilterByCategory(s.flatten(), criteria.Filter.Categories, prefixMatch)
	selected = static.Filter(selected, asset.Criteria{Keywords: criteria.Keywords})

	if sort, ok := criteria.Sort.Get(); ok {
		asset.SortAssets(selected, sort)
	}

	start := (criteria.Page.Number - 1) * criteria.Page.Size
	end := start + criteria.Page.Size
	if start > len(selected) {
		start = len(selected)
	}
	if end > len(selected) {
		end = len(selected)
	}

	page := selected[start:end]
	return page, end < len(selected), nil
}

// Download copies the asset file into destDir under the liveness policy.
func (s *Store) Download(ctx context.Context, a *asset.Asset, destDir string, onProgress store.ProgressFunc) (store.Result, error) {
	if a == nil || a.DownloadURL == "" {
		return store.Result{Status: store.StatusNotFound}, nil
	}

	window := time.Duration(viper.GetInt(key.DownloadTimeout)) * time.Second
	return store.Transfer(ctx, window, onProgress, func(ctx context.Context, report store.ProgressFunc) (store.Result, error) {
		return s.copyFile(ctx, a.DownloadURL, destDir, report)
	})
}

func (s *Store) copyFile(ctx context.Context, src, destDir string, report store.ProgressFunc) (store.Result, error) {
	fs := filesystem.API()

	info, err := fs.Stat(src)
	if err != nil {
		return store.Result{Status: store.StatusNotFound}, err
	}

	in, err := fs.Open(src)
	if err != nil {
		return store.Result{Status: store.StatusAccessDenied}, err
	}
	defer in.Close()

	dest := filepath.ToSlash(filepath.Join(destDir, filepath.Base(src)))
	out, err := fs.Create(dest)
	if err != nil {
		return store.Result{Status: store.StatusAccessDenied}, err
	}
	defer out.Close()

	var copied int64
	buf := make([]byte, 512*1024)
	for {
		select {
		case <-ctx.Done():
			return store.Result{Status: store.StatusError}, ctx.Err()
		default:
		}

		n, err := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return store.Result{Status: store.StatusError}, werr
			}
			copied += int64(n)
			if info.Size() > 0 {
				report(float64(copied) / float64(info.Size()))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return store.Result{Status: store.StatusError}, err
		}
	}

	return store.Result{Status: store.StatusOK, URL: dest}, nil
}

// Collect synchronously crawls the given folders, merging per-subfolder
// results into the cached index as each folder completes, then persists the index.
func (s *Store) Collect(folders ...string) {
	for _, folder := range folders {
		s.collectFolder(folder)
	}
	s.save()
}

func (s *Store) collectFolder(folder string) {
	log.Infof("collecting %s", folder)

	s.mu.Lock()
	if _, ok := s.assets[folder]; !ok {
		s.assets[folder] = make(map[string][]*asset.Asset)
	}
	s.mu.Unlock()

	c := &collector{
		root:          folder,
		vendor:        ProviderID,
		suffixes:      viper.GetStringSlice(key.LocalFileSuffixes),
		thumbnailSize: viper.GetInt(key.LocalThumbnailSize),
		categoryDepth: viper.GetInt(key.LocalCategoryDepth),
	}

	scanned := make(map[string]struct{})
	changed := false

	c.Collect(func(subfolder string, collected []*asset.Asset) {
		scanned[subfolder] = struct{}{}

		s.mu.Lock()
		if equalAssets(s.assets[folder][subfolder], collected) {
			s.mu.Unlock()
			return
		}
		s.assets[folder][subfolder] = collected
		s.mu.Unlock()

		changed = true
		log.Infof("%s collected with %s", subfolder, util.Quantify(len(collected), "asset", "assets"))
	})

	// Subfolders that vanished since the last crawl are dropped.
	s.mu.Lock()
	for subfolder := range s.assets[folder] {
		if _, ok := scanned[subfolder]; !ok {
			delete(s.assets[folder], subfolder)
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notifyRefresh()
	}
}

// SetFolders reconciles the configured root set: removed folders drop their
// cached entries and the categories recompute; added folders are crawled in
// the background without disturbing unaffected folders.
func (s *Store) SetFolders(folders []string) {
	s.mu.Lock()
	removed := lo.Without(s.folders, folders...)
	added := lo.Without(folders, s.folders...)
	s.folders = append([]string(nil), folders...)

	for _, folder := range removed {
		delete(s.assets, folder)
	}
	s.mu.Unlock()

	if len(removed) > 0 {
		s.save()
		s.notifyRefresh()
	}
	if len(added) > 0 {
		go s.Collect(added...)
	}
}

func (s *Store) flatten() []*asset.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*asset.Asset
	for _, folder := range s.assets {
		for _, assets := range folder {
			all = append(all, assets...)
		}
	}
	return all
}

func (s *Store) notifyRefresh() {
	s.mu.Lock()
	listeners := append([]func(){}, s.onRefresh...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// load restores the persisted index, keeping only folders still configured.
// An unreadable index is treated as an empty cache, never as corruption.
func (s *Store) load() {
	cached, expired, err := s.cacher.Get()
	if err != nil || expired || cached == nil {
		return
	}

	for folder, subfolders := range cached {
		if !lo.Contains(s.folders, folder) {
			continue
		}
		s.assets[folder] = subfolders
	}
}

// save persists the index; gache writes are whole-file so a failed write
// forgets the cache rather than corrupting it. Writers are serialized by mu
// held around the snapshot.
func (s *Store) save() {
	s.mu.Lock()
	snapshot := make(index, len(s.assets))
	for folder, subfolders := range s.assets {
		snapshot[folder] = subfolders
	}
	err := s.cacher.Set(snapshot)
	s.mu.Unlock()

	if err != nil {
		log.Warnf("failed to persist local asset index: %v", err)
	}
}

func equalAssets(a, b []*asset.Asset) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

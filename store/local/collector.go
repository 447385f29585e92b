package local

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/scenevault/scenevault/asset"
	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/log"
	"github.com/scenevault/scenevault/util"
)

// ThumbnailDir is the conventional name of the sibling folder holding asset thumbnails.
const ThumbnailDir = ".thumbs"

// FolderDoneFunc receives each crawled subfolder's assets as soon as that
// folder completes, so listeners can update categories incrementally instead
// of waiting for the entire tree.
type FolderDoneFunc func(folder string, assets []*asset.Asset)

// collector walks one root folder, classifying files by suffix allow-list and
// associating thumbnails from the conventional .thumbs/<size>x<size> folder.
type collector struct {
	root          string
	vendor        string
	suffixes      []string
	thumbnailSize int
	categoryDepth int
}

// Collect traverses the root recursively. Assets without a resolvable
// thumbnail are excluded from the reported results.
func (c *collector) Collect(onFolderDone FolderDoneFunc) {
	c.traverse(strings.TrimRight(c.root, "/"), onFolderDone)
}

func (c *collector) traverse(dir string, onFolderDone FolderDoneFunc) {
	entries, err := filesystem.API().ReadDir(dir)
	if err != nil {
		log.Warnf("failed to access %s: %v", dir, err)
		return
	}

	var thumbnails string
	var collected []*asset.Asset

	for _, entry := range entries {
		path := filepath.ToSlash(filepath.Join(dir, entry.Name()))
		if entry.IsDir() {
			if entry.Name() == ThumbnailDir {
				thumbnails = filepath.ToSlash(filepath.Join(path, fmt.Sprintf("%dx%d", c.thumbnailSize, c.thumbnailSize)))
				continue
			}
			c.traverse(path, onFolderDone)
			continue
		}

		if a := c.newAsset(dir, entry); a != nil {
			collected = append(collected, a)
		}
	}

	if thumbnails != "" {
		c.attachThumbnails(thumbnails, collected)
	}

	// Files the thumbnail pass could not resolve are dropped, not surfaced bare.
	collected = lo.Filter(collected, func(a *asset.Asset, _ int) bool {
		return a.Thumbnail != ""
	})

	if len(collected) > 0 && onFolderDone != nil {
		onFolderDone(dir, collected)
	}
}

func (c *collector) newAsset(dir string, entry fs.FileInfo) *asset.Asset {
	suffix := strings.ToLower(filepath.Ext(entry.Name()))
	if !lo.Contains(c.suffixes, suffix) {
		return nil
	}

	path := filepath.ToSlash(filepath.Join(dir, entry.Name()))
	sum := sha256.Sum256([]byte(path))

	return &asset.Asset{
		Identifier:  hex.EncodeToString(sum[:16]),
		Name:        entry.Name(),
		PublishedAt: entry.ModTime().Format(time.RFC3339),
		Categories:  []string{c.category(dir)},
		Vendor:      c.vendor,
		DownloadURL: path,
	}
}

// category derives the asset's category from its folder's position under the
// root, truncated to the configured number of path segments to avoid
// category explosion on deep trees.
func (c *collector) category(dir string) string {
	rel, err := filepath.Rel(c.root, dir)
	if err != nil || rel == "." {
		return util.FileStem(c.root)
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) > c.categoryDepth {
		segments = segments[:c.categoryDepth]
	}
	return strings.Join(segments, "/")
}

// attachThumbnails resolves each asset's thumbnail from the sibling
// .thumbs/<size>x<size> folder; a thumbnail named <file>.<ext> or
// <file>.auto.<ext> covers the asset file <file>.
func (c *collector) attachThumbnails(dir string, collected []*asset.Asset) {
	if len(collected) == 0 {
		return
	}

	entries, err := filesystem.API().ReadDir(dir)
	if err != nil {
		log.Warnf("failed to access %s: %v", dir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem := util.FileStem(entry.Name())
		for _, a := range collected {
			if stem == a.Name || stem == a.Name+".auto" {
				a.Thumbnail = filepath.ToSlash(filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
}

package cloud

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scenevault/scenevault/filesystem"
	"github.com/scenevault/scenevault/util"
)

// unzip extracts an archive next to itself into a folder named after the
// archive and returns the folder path. The archive is kept.
func unzip(path string) (string, error) {
	fs := filesystem.API()

	info, err := fs.Stat(path)
	if err != nil {
		return "", err
	}

	file, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	reader, err := zip.NewReader(file, info.Size())
	if err != nil {
		return "", err
	}

	dest := filepath.ToSlash(filepath.Join(filepath.Dir(path), util.FileStem(path)))
	if err := fs.MkdirAll(dest, os.ModePerm); err != nil {
		return "", err
	}

	for _, entry := range reader.File {
		if err := extract(entry, dest); err != nil {
			return "", err
		}
	}

	return dest, nil
}

func extract(entry *zip.File, dest string) error {
	fs := filesystem.API()
	target := filepath.ToSlash(filepath.Join(dest, entry.Name))

	// Entries escaping the destination are rejected.
	if !strings.HasPrefix(target, strings.TrimRight(dest, "/")+"/") && target != dest {
		return fmt.Errorf("illegal archive path %s", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return fs.MkdirAll(target, os.ModePerm)
	}

	if err := fs.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return err
	}

	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

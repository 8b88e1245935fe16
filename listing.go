package stamper

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/ygrebnov/errorc"
)

// DefaultExtension selects the files a DirLister returns when none is configured.
const DefaultExtension = ".jpg"

// Lister enumerates the files to process.
// Failures wrap ErrListingFailed.
type Lister interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// DirLister lists the regular files of one directory (not recursively) whose
// extension matches Extension, case-insensitively.
type DirLister struct {
	Fs        afero.Fs
	Extension string
}

// NewDirLister returns a DirLister on the OS filesystem.
func NewDirLister(ext string) DirLister {
	return DirLister{Fs: afero.NewOsFs(), Extension: ext}
}

// List returns absolute paths, sorted lexically. An empty result is not an error.
func (l DirLister) List(ctx context.Context, dir string) ([]string, error) {
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	ext := l.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, listingError(dir, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, listingError(dir, err)
	}

	entries, err := afero.ReadDir(fs, abs)
	if err != nil {
		return nil, listingError(dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(abs, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func listingError(dir string, err error) error {
	return fmt.Errorf("%w: %w", errorc.With(ErrListingFailed, errorc.String("dir", dir)), err)
}

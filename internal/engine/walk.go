package engine

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/complygate/complygate/internal/ignore"
)

// collectFiles traverses the tree under cfg.Root and returns the
// slash-separated relative paths of candidate files, sorted. Contents are not
// read here; oversized files, excluded directories and ignore-file matches
// are filtered out up front so workers only ever open eligible paths.
func collectFiles(cfg Config, ign ignore.Matcher) ([]string, error) {
	var out []string
	err := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == cfg.Root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, rerr := filepath.Rel(cfg.Root, p)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ign.Match(rel) {
			return nil
		}
		if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
			return nil
		}
		if cfg.MaxBytes > 0 {
			if info, ierr := d.Info(); ierr == nil && info.Size() > cfg.MaxBytes {
				return nil
			}
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// WalkDir is lexical already, but sort explicitly: output ordering is a
	// documented guarantee, not a filesystem accident.
	sort.Strings(out)
	return out, nil
}

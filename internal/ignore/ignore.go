// Package ignore loads a .complygateignore file and answers path membership.
// Lines are glob patterns; a trailing slash marks a directory prefix, blank
// lines and '#' comments are skipped.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds parsed ignore patterns. The zero value matches nothing.
type Matcher struct {
	dirs  []string // directory prefixes, no trailing slash
	globs []string
}

// Load parses the ignore file at path. A missing file yields an empty matcher
// and the underlying error so callers can treat absence as non-fatal.
func Load(path string) (Matcher, error) {
	var m Matcher
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "/") {
			m.dirs = append(m.dirs, strings.TrimSuffix(line, "/"))
			continue
		}
		m.globs = append(m.globs, line)
	}
	return m, sc.Err()
}

// Match reports whether the slash-separated relative path is ignored.
func (m Matcher) Match(relPath string) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	for _, d := range m.dirs {
		if rp == d || strings.HasPrefix(rp, d+"/") || strings.Contains(rp, "/"+d+"/") {
			return true
		}
	}
	for _, g := range m.globs {
		if ok, _ := doublestar.Match(g, rp); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(rp)); ok {
			return true
		}
	}
	return false
}

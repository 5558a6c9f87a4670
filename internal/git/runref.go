// Package git resolves run identifiers for baseline entries from repository
// state. A run ref is opaque to the rest of the system; when the target tree
// is a git checkout it is "<short-hash>@<branch>", otherwise a timestamp.
package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

// RunRef returns a best-effort identifier for the current run. It never
// fails: outside a repository, or on any git error, it falls back to a
// UTC timestamp so baseline entries always carry provenance.
func RunRef(root string) string {
	if ref, ok := headRef(root); ok {
		return ref
	}
	return time.Now().UTC().Format("run-20060102T150405Z")
}

func headRef(root string) (string, bool) {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	head, err := repo.Head()
	if err != nil {
		return "", false
	}
	hash := head.Hash().String()
	if len(hash) > 12 {
		hash = hash[:12]
	}
	branch := head.Name().Short()
	if branch == "" || branch == "HEAD" {
		return hash, true
	}
	return fmt.Sprintf("%s@%s", hash, branch), true
}

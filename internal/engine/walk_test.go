package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/complygate/complygate/internal/ignore"
)

func TestCollectFiles_DefaultExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go":              "x",
		"node_modules/lib/b.js": "x",
		"vendor/dep/c.go":       "x",
		"assets/logo.png":       "x",
		"docs/readme.md":        "x",
	})
	files, err := collectFiles(Config{Root: root, DefaultExcludes: true}, ignore.Matcher{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"docs/readme.md", "src/a.go"}
	if len(files) != len(want) {
		t.Fatalf("got %v want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("got %v want %v", files, want)
		}
	}
}

func TestCollectFiles_IgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go":     "x",
		"src/gen/g.go": "x",
	})
	ig := filepath.Join(root, IgnoreFileName)
	if err := os.WriteFile(ig, []byte("src/gen/\n"+IgnoreFileName+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ignore.Load(ig)
	if err != nil {
		t.Fatal(err)
	}
	files, err := collectFiles(Config{Root: root}, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "src/a.go" {
		t.Fatalf("got %v", files)
	}
}

func TestCollectFiles_MaxBytes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.txt": "ok",
		"big.txt":   string(make([]byte, 4096)),
	})
	files, err := collectFiles(Config{Root: root, MaxBytes: 1024}, ignore.Matcher{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "small.txt" {
		t.Fatalf("got %v", files)
	}
}

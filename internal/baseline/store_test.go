package baseline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/complygate/complygate/internal/types"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")

	s, err := Open(path)
	require.NoError(t, err)
	s.Put("AUTH-001", Entry{Status: types.StatusFail, UpdatedAt: time.Now().UTC(), RunRef: "abc123@main"})
	s.Put("LOG-002", Entry{Status: types.StatusPass, UpdatedAt: time.Now().UTC(), RunRef: "abc123@main"})
	s.SetRulesetHash("deadbeef")
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	require.Equal(t, 2, s2.Len())
	e, ok := s2.Get("AUTH-001")
	require.True(t, ok)
	require.Equal(t, types.StatusFail, e.Status)
	require.Equal(t, "abc123@main", e.RunRef)
	require.Equal(t, "deadbeef", s2.RulesetHash())
	require.Equal(t, []string{"AUTH-001", "LOG-002"}, s2.IDs())
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fresh.json"))
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, 0, s.Len())
}

func TestStore_CorruptFileFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "parse", serr.Op)

	// the corrupted file must be left untouched
	b, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, "{not json", string(b))

	// the failed open must not leave the lock behind
	_, err = os.Stat(path + ".lock")
	require.True(t, os.IsNotExist(err))
}

func TestStore_LockExcludesSecondOpener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	// a pre-held lock makes the second open time out
	done := make(chan error, 1)
	go func() {
		s2, err := Open(path)
		if err == nil {
			s2.Close()
		}
		done <- err
	}()
	select {
	case err := <-done:
		var serr *StoreError
		require.ErrorAs(t, err, &serr)
	case <-time.After(10 * time.Second):
		t.Fatal("second open did not return")
	}
}

func TestStore_FlushAfterCloseRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Error(t, s.Flush())
}

func TestStore_Prune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	s.Put("T1", Entry{Status: types.StatusFail})
	require.True(t, s.Prune("T1"))
	require.False(t, s.Prune("T1"))
	require.Equal(t, 0, s.Len())
}

func TestDefaultPath_PrefersGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.Equal(t, filepath.Join(root, ".git", "complygate_baseline.json"), DefaultPath(root))

	plain := t.TempDir()
	require.Equal(t, filepath.Join(plain, ".complygate_baseline.json"), DefaultPath(plain))
}

package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/spherelog/spherelog/internal/store"
	"github.com/spherelog/spherelog/internal/store/storetest"
)

func TestSQLiteStore_Suite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "reminders.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestDataDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envHome, dir)

	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if got != dir {
		t.Fatalf("DataDir: got %q want %q", got, dir)
	}

	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if filepath.Dir(p) != dir {
		t.Fatalf("DefaultPath not under override dir: %q", p)
	}
}

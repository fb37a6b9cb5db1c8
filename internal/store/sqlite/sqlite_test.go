package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/waypointhq/waypoint/server/internal/store"
	"github.com/waypointhq/waypoint/server/internal/store/storetest"
)

func TestSqliteStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		path := filepath.Join(t.TempDir(), "waypoint-test.db")
		s, err := New(path)
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}

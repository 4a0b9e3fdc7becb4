package testsupport

import (
	"testing"

	"pixship/internal/config"
	"pixship/internal/history"
)

// MustOpenHistory opens the history store of cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

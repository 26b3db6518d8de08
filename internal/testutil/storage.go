package testutil

import (
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
)

// LocalStorage returns a storage.Local rooted at dir, creating it if needed.
func LocalStorage(t *testing.T, dir string) *storage.Local {
	t.Helper()
	s, err := storage.NewLocal(storage.LocalConfig{BasePath: dir})
	if err != nil {
		t.Fatalf("local storage at %s: %v", dir, err)
	}
	return s
}

// MemoryStorage returns an empty in-memory storage.Store.
func MemoryStorage() *storage.Memory {
	return storage.NewMemory(storage.MemoryConfig{})
}

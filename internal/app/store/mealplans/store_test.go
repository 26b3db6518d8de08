package mealplanstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	mealplanstore "github.com/dalemusser/mealplanner/internal/app/store/mealplans"
	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/testutil"
)

const family = "fam-1"

func TestSave_NumbersContiguously(t *testing.T) {
	root := t.TempDir()
	store := mealplanstore.New(testutil.LocalStorage(t, root))
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		pv, err := store.Save(ctx, family, []byte(`{"v":`+strconv.Itoa(want)+`}`))
		if err != nil {
			t.Fatalf("Save #%d failed: %v", want, err)
		}
		if pv.Version != want {
			t.Errorf("version: got %d, want %d", pv.Version, want)
		}
		wantPath := filepath.Join(root, family, strconv.Itoa(want)+".json")
		if pv.Path != wantPath {
			t.Errorf("path: got %q, want %q", pv.Path, wantPath)
		}
	}

	vs, err := store.Versions(ctx, family)
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(vs) != 3 || vs[0] != 1 || vs[2] != 3 {
		t.Errorf("Versions = %v, want [1 2 3]", vs)
	}
}

func TestSave_FillsFirstGap(t *testing.T) {
	root := t.TempDir()
	store := mealplanstore.New(testutil.LocalStorage(t, root))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Save(ctx, family, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Remove(filepath.Join(root, family, "2.json")); err != nil {
		t.Fatal(err)
	}

	pv, err := store.Save(ctx, family, []byte(`{"refilled":true}`))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if pv.Version != 2 {
		t.Errorf("version: got %d, want 2", pv.Version)
	}

	pv, err = store.Save(ctx, family, []byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if pv.Version != 4 {
		t.Errorf("version after refill: got %d, want 4", pv.Version)
	}
}

func TestSave_NeverOverwrites(t *testing.T) {
	store := mealplanstore.New(testutil.MemoryStorage())
	ctx := context.Background()

	if _, err := store.Save(ctx, family, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(ctx, family, []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadPrimary(ctx, family)
	if err != nil {
		t.Fatalf("LoadPrimary failed: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("slot 1 = %q, want %q", got, "first")
	}
}

func TestSave_PersistsVerbatim(t *testing.T) {
	store := mealplanstore.New(testutil.MemoryStorage())
	raw := []byte("not json at all\n  {trailing")

	pv, err := store.Save(context.Background(), family, raw)
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(context.Background(), family, pv.Version)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(raw) {
		t.Errorf("stored %q, want %q", got, raw)
	}
}

func TestSave_ConcurrentWritersGetDistinctSlots(t *testing.T) {
	store := mealplanstore.New(testutil.LocalStorage(t, t.TempDir()))
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	versions := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pv, err := store.Save(ctx, family, []byte("{}"))
			if err != nil {
				t.Errorf("Save failed: %v", err)
				return
			}
			versions <- pv.Version
		}()
	}
	wg.Wait()
	close(versions)

	seen := map[int]bool{}
	for v := range versions {
		if seen[v] {
			t.Errorf("version %d assigned twice", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct versions, want %d", len(seen), n)
	}
}

func TestSave_RejectsUnsafeFamilyID(t *testing.T) {
	store := mealplanstore.New(testutil.MemoryStorage())
	_, err := store.Save(context.Background(), "../escape", []byte("{}"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadPrimary_NotFound(t *testing.T) {
	store := mealplanstore.New(testutil.MemoryStorage())
	ctx := context.Background()

	for _, id := range []string{"unknown-family", "../etc"} {
		_, err := store.LoadPrimary(ctx, id)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("LoadPrimary(%q): expected not found, got %v", id, err)
		}
	}
}

func TestLoadPrimary_IgnoresLaterVersions(t *testing.T) {
	root := t.TempDir()
	store := mealplanstore.New(testutil.LocalStorage(t, root))
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(root, family), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, family, "2.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadPrimary(ctx, family); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found when only slot 2 exists, got %v", err)
	}
	ok, err := store.HasVersions(ctx, family)
	if err != nil || !ok {
		t.Errorf("HasVersions = %v, %v; want true, nil", ok, err)
	}
}

func TestVersions_SkipsForeignFiles(t *testing.T) {
	root := t.TempDir()
	store := mealplanstore.New(testutil.LocalStorage(t, root))
	dir := filepath.Join(root, family)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"1.json", "member_restrictions.json", "01.json", "0.json", "3.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	vs, err := store.Versions(context.Background(), family)
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 2 || vs[0] != 1 || vs[1] != 3 {
		t.Errorf("Versions = %v, want [1 3]", vs)
	}

	none, err := store.Versions(context.Background(), "missing")
	if err != nil || len(none) != 0 {
		t.Errorf("Versions(missing) = %v, %v; want empty, nil", none, err)
	}
}

func TestSave_MemoryBackendUsesKeys(t *testing.T) {
	objects := testutil.MemoryStorage()
	store := mealplanstore.New(objects)
	ctx := context.Background()

	if err := objects.PutBytes(ctx, family+"/1.json", []byte("existing"), nil); err != nil {
		t.Fatal(err)
	}
	pv, err := store.Save(ctx, family, []byte("{}"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if pv.Version != 2 || pv.Path != family+"/2.json" {
		t.Errorf("got version %d at %q, want 2 at %q", pv.Version, pv.Path, family+"/2.json")
	}
	got, err := store.LoadPrimary(ctx, family)
	if err != nil || string(got) != "existing" {
		t.Errorf("LoadPrimary = %q, %v; want existing document untouched", got, err)
	}
}

func TestSave_DoesNotClobberFileWrittenOutside(t *testing.T) {
	root := t.TempDir()
	store := mealplanstore.New(testutil.LocalStorage(t, root))
	ctx := context.Background()

	// Another process already claimed slot 1 on disk.
	if err := os.MkdirAll(filepath.Join(root, family), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, family, "1.json"), []byte("other"), 0o644); err != nil {
		t.Fatal(err)
	}

	pv, err := store.Save(ctx, family, []byte("mine"))
	if err != nil {
		t.Fatal(err)
	}
	if pv.Version != 2 {
		t.Errorf("version: got %d, want 2", pv.Version)
	}
	got, _ := os.ReadFile(filepath.Join(root, family, "1.json"))
	if string(got) != "other" {
		t.Errorf("slot 1 overwritten: %q", got)
	}
}

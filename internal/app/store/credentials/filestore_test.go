package credentialstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	credentialstore "github.com/dalemusser/mealplanner/internal/app/store/credentials"
	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/dalemusser/mealplanner/internal/testutil"
)

func newFileStore(t *testing.T) *credentialstore.FileStore {
	t.Helper()
	return credentialstore.NewFileStore(testutil.MemoryStorage(), credentialstore.DefaultFile)
}

// newDiskFileStore returns a store on local disk plus the path of its document.
func newDiskFileStore(t *testing.T) (*credentialstore.FileStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	store := credentialstore.NewFileStore(testutil.LocalStorage(t, dir), credentialstore.DefaultFile)
	return store, filepath.Join(dir, credentialstore.DefaultFile)
}

func account(email, family string) models.Account {
	return models.Account{
		Email:        email,
		FirstName:    "First " + email,
		LastName:     "Last",
		PasswordHash: "$2a$12$hash",
		FamilyID:     family,
		CreatedAt:    "2024-01-01T00:00:00Z",
	}
}

func TestFileStore_Load_Missing(t *testing.T) {
	store := newFileStore(t)

	accounts, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected empty table, got %d entries", len(accounts))
	}
}

func TestFileStore_Load_Corrupt(t *testing.T) {
	store, path := newDiskFileStore(t)
	for _, body := range []string{"{not json", "null", "[1,2,3]", ""} {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		accounts, err := store.Load()
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", body, err)
		}
		if len(accounts) != 0 {
			t.Errorf("Load(%q): expected empty table, got %d", body, len(accounts))
		}
	}
}

func TestFileStore_SaveLoad_RoundTrip(t *testing.T) {
	store := newFileStore(t)
	in := map[string]models.Account{
		"a@x.com": account("a@x.com", "fam-1"),
		"b@x.com": account("b@x.com", "fam-1"),
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(out))
	}
	for email, want := range in {
		if got := out[email]; got != want {
			t.Errorf("account %s: got %+v, want %+v", email, got, want)
		}
	}
}

func TestFileStore_OnDiskLayout(t *testing.T) {
	store, path := newDiskFileStore(t)
	ctx := context.Background()
	if err := store.Create(ctx, account("a@x.com", "fam-1")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a@x.com":{"first_name":"First a@x.com","last_name":"Last","password":"$2a$12$hash","family_id":"fam-1","timestamp":"2024-01-01T00:00:00Z"}}`
	if string(data) != want {
		t.Errorf("file content:\n got %s\nwant %s", data, want)
	}
}

func TestFileStore_ExistsDuplicate(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()
	if err := store.Create(ctx, account("b@x.com", "fam-1")); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, account("c@x.com", "fam-2")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		candidates []string
		wantOK     bool
		wantDup    string
	}{
		{"none", []string{"a@x.com", "d@x.com", "", ""}, true, ""},
		{"single", []string{"a@x.com", "b@x.com", "", ""}, false, "b@x.com"},
		{"first in order", []string{"c@x.com", "b@x.com", "", ""}, false, "c@x.com"},
		{"empty slots skipped", []string{"", "", "", ""}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, dup, err := store.ExistsDuplicate(ctx, tt.candidates)
			if err != nil {
				t.Fatalf("ExistsDuplicate failed: %v", err)
			}
			if ok != tt.wantOK || dup != tt.wantDup {
				t.Errorf("got (%v, %q), want (%v, %q)", ok, dup, tt.wantOK, tt.wantDup)
			}
		})
	}
}

func TestFileStore_Create_RejectsDuplicate(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()
	first := account("a@x.com", "fam-1")
	if err := store.Create(ctx, first); err != nil {
		t.Fatal(err)
	}

	err := store.Create(ctx, account("a@x.com", "fam-2"))
	if !errors.Is(err, apperr.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	got, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.FamilyID != "fam-1" {
		t.Errorf("family_id changed to %q", got.FamilyID)
	}
}

func TestFileStore_Get_NotFound(t *testing.T) {
	store := newFileStore(t)
	_, err := store.Get(context.Background(), "nobody@x.com")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFileStore_FamilyMembers(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()
	for _, a := range []models.Account{
		account("c@x.com", "fam-1"),
		account("a@x.com", "fam-1"),
		account("z@x.com", "fam-2"),
	} {
		if err := store.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	members, err := store.FamilyMembers(ctx, "fam-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[0].Email != "a@x.com" || members[1].Email != "c@x.com" {
		t.Errorf("unexpected order: %s, %s", members[0].Email, members[1].Email)
	}
}

func TestFileStore_ConcurrentCreates(t *testing.T) {
	store, _ := newDiskFileStore(t)
	ctx := context.Background()

	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com", "g@x.com", "h@x.com"}
	var wg sync.WaitGroup
	for _, e := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			if err := store.Create(ctx, account(email, "fam")); err != nil {
				t.Errorf("Create(%s) failed: %v", email, err)
			}
		}(e)
	}
	wg.Wait()

	accounts, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != len(emails) {
		t.Errorf("expected %d accounts, got %d (lost writes)", len(emails), len(accounts))
	}
}

func TestFileStore_ConcurrentSameEmail(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Create(ctx, account("same@x.com", "fam")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected exactly one successful create, got %d", created)
	}
}

package credentialstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
)

// DefaultFile is the credential table key inside the data store.
const DefaultFile = "user_credentials.json"

// FileStore keeps every account in one JSON object keyed by email.
// All mutations go through mu, so concurrent submissions in one process
// cannot lose each other's writes.
type FileStore struct {
	objects storage.Store
	key     string
	mu      sync.Mutex
}

// NewFileStore returns a store backed by the JSON document at key in
// objects. The document is created on first save.
func NewFileStore(objects storage.Store, key string) *FileStore {
	return &FileStore{objects: objects, key: key}
}

// Key returns the document key inside the backing store.
func (s *FileStore) Key() string { return s.key }

// Load reads the whole table. A missing or unparsable file yields an empty
// table and no error; other read failures are persistence errors.
func (s *FileStore) Load() (map[string]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the whole table. On local disk the storage layer writes a
// temporary file and renames it over the original, so readers see either
// the old or the new table.
func (s *FileStore) Save(accounts map[string]models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(accounts)
}

// ExistsDuplicate implements Store.
func (s *FileStore) ExistsDuplicate(ctx context.Context, candidates []string) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}
	accounts, err := s.Load()
	if err != nil {
		return false, "", err
	}
	for _, email := range candidates {
		if email == "" {
			continue
		}
		if _, taken := accounts[email]; taken {
			return false, email, nil
		}
	}
	return true, "", nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, email string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	accounts, err := s.Load()
	if err != nil {
		return models.Account{}, err
	}
	acct, ok := accounts[email]
	if !ok {
		return models.Account{}, apperr.New(apperr.KindNotFound, "credentials.get", "account not found")
	}
	return acct, nil
}

// Create implements Store. The whole table is re-read and re-saved for each
// new account while holding the writer lock.
func (s *FileStore) Create(ctx context.Context, acct models.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if acct.Email == "" {
		return apperr.Validation("credentials.create", "email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return err
	}
	if _, taken := accounts[acct.Email]; taken {
		return apperr.Duplicate("credentials.create", acct.Email)
	}
	accounts[acct.Email] = acct
	return s.save(accounts)
}

// FamilyMembers implements Store.
func (s *FileStore) FamilyMembers(ctx context.Context, familyID string) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accounts, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []models.Account
	for _, acct := range accounts {
		if acct.FamilyID == familyID {
			out = append(out, acct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *FileStore) load() (map[string]models.Account, error) {
	data, err := s.objects.GetBytes(context.Background(), s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]models.Account{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "credentials.load", err)
	}

	accounts := map[string]models.Account{}
	if err := json.Unmarshal(data, &accounts); err != nil {
		return map[string]models.Account{}, nil
	}
	if accounts == nil {
		// a literal "null" document
		return map[string]models.Account{}, nil
	}
	for email, acct := range accounts {
		acct.Email = email
		accounts[email] = acct
	}
	return accounts, nil
}

func (s *FileStore) save(accounts map[string]models.Account) error {
	if accounts == nil {
		accounts = map[string]models.Account{}
	}
	data, err := json.Marshal(accounts)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "credentials.save", err)
	}
	opts := &storage.PutOptions{ContentType: "application/json"}
	if err := s.objects.PutBytes(context.Background(), s.key, data, opts); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "credentials.save", err)
	}
	return nil
}

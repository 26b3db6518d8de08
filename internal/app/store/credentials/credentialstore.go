// Package credentialstore owns member accounts, keyed by email.
//
// Two backends implement Store: FileStore keeps the whole table in one JSON
// document (data/user_credentials.json) behind a single-writer mutex, and
// MongoStore keeps one document per account with a unique email index.
package credentialstore

import (
	"context"

	"github.com/dalemusser/mealplanner/internal/domain/models"
)

// Store is the read/modify/write contract the intake workflow and the login
// feature use. Emails passed in are expected to be normalized.
type Store interface {
	// ExistsDuplicate scans candidates in order and reports the first one that
	// is already registered under any family. ok is true when none collide.
	// Empty candidates are skipped.
	ExistsDuplicate(ctx context.Context, candidates []string) (ok bool, duplicate string, err error)

	// Get returns the account for email or an apperr NotFound error.
	Get(ctx context.Context, email string) (models.Account, error)

	// Create registers a new account. It fails with an apperr DuplicateAccount
	// error when the email is already present; existing accounts are never
	// overwritten.
	Create(ctx context.Context, acct models.Account) error

	// FamilyMembers returns every account sharing familyID, ordered by email.
	FamilyMembers(ctx context.Context, familyID string) ([]models.Account, error)
}

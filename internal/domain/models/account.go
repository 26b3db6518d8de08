// internal/domain/models/account.go
package models

// Account is one member login, keyed by email in the credential table.
//
// The JSON field names match the on-disk layout of data/user_credentials.json,
// so "password" holds the bcrypt hash and "timestamp" the submission time.
// FamilyID never changes once the account is written.
type Account struct {
	Email        string `json:"-" bson:"email"`
	FirstName    string `json:"first_name" bson:"first_name"`
	LastName     string `json:"last_name" bson:"last_name"`
	PasswordHash string `json:"password" bson:"password"`
	FamilyID     string `json:"family_id" bson:"family_id"`
	CreatedAt    string `json:"timestamp" bson:"timestamp"`
}

// FamilyMember is the public view of an account returned to a signed-in member.
type FamilyMember struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"timestamp"`
}

// Member returns the public view of the account.
func (a Account) Member() FamilyMember {
	return FamilyMember{
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
	}
}

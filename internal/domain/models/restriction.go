// internal/domain/models/restriction.go
package models

// MaxMembers is the number of member slots in one family submission.
const MaxMembers = 4

// DefaultRestriction is used when a member slot carries no dietary restriction.
const DefaultRestriction = "None"

// MemberRestriction is one member slot of a family submission.
// An empty Email marks an unused slot.
type MemberRestriction struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Restriction string `json:"dietary_restriction"`
}

// IsEmpty reports whether the slot was left blank in the submission.
func (m MemberRestriction) IsEmpty() bool {
	return m.Email == ""
}

// RestrictionRecord is the persisted submission for one family
// (meal_plans/<family_id>/member_restrictions.json). It is overwritten as a
// whole on update and read back by the refresh worker to rebuild prompts.
type RestrictionRecord struct {
	FamilyID string                        `json:"family_id"`
	Members  [MaxMembers]MemberRestriction `json:"members"`
}

// Emails returns the non-empty member emails in slot order.
func (r RestrictionRecord) Emails() []string {
	out := make([]string, 0, MaxMembers)
	for _, m := range r.Members {
		if !m.IsEmpty() {
			out = append(out, m.Email)
		}
	}
	return out
}

// ActiveMembers returns the non-empty member slots in slot order.
func (r RestrictionRecord) ActiveMembers() []MemberRestriction {
	out := make([]MemberRestriction, 0, MaxMembers)
	for _, m := range r.Members {
		if !m.IsEmpty() {
			out = append(out, m)
		}
	}
	return out
}

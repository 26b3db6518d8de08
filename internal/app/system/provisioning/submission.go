package provisioning

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/normalize"
	"github.com/dalemusser/mealplanner/internal/domain/models"
)

// Submission is one parsed family intake form: up to four member slots and
// the form's own timestamp.
type Submission struct {
	Members   [models.MaxMembers]models.MemberRestriction
	Timestamp string
}

// field reads one submitted value by name.
type field func(name string) string

// ParseJSON parses a raw JSON object body. Non-string values are converted
// with their JSON text; null and missing keys read as empty.
func ParseJSON(body []byte) (Submission, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Submission{}, apperr.Validation("intake.parse", "request body must be a JSON object")
	}
	return parse(func(name string) string {
		switch v := raw[name].(type) {
		case nil:
			return ""
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		default:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}), nil
}

// ParseForm parses an url-encoded form.
func ParseForm(values url.Values) Submission {
	return parse(values.Get)
}

func parse(get field) Submission {
	var s Submission
	for i := range s.Members {
		n := i + 1
		email := normalize.Email(get(fmt.Sprintf("email_%d", n)))
		if email == "" {
			continue
		}
		restriction := normalize.Text(get(fmt.Sprintf("dietary_restrictions_%d", n)))
		if restriction == "" {
			restriction = models.DefaultRestriction
		}
		s.Members[i] = models.MemberRestriction{
			Email:       email,
			FirstName:   normalize.Name(get(fmt.Sprintf("first_name_%d", n))),
			LastName:    normalize.Name(get(fmt.Sprintf("last_name_%d", n))),
			Restriction: restriction,
		}
	}
	// "timestampt" is the field name the intake form has always sent.
	s.Timestamp = strings.TrimSpace(get("timestampt"))
	if s.Timestamp == "" {
		s.Timestamp = strings.TrimSpace(get("timestamp"))
	}
	return s
}

// Validate checks that email_1 is present, every email is well formed, and
// no address appears twice in the same submission.
func (s Submission) Validate() error {
	const op = "intake.validate"

	if s.Members[0].IsEmpty() {
		return apperr.Validation(op, "email_1 is required")
	}
	seen := make(map[string]int, models.MaxMembers)
	for i, m := range s.Members {
		if m.IsEmpty() {
			continue
		}
		if !normalize.EmailValid(m.Email) {
			return apperr.Validation(op, fmt.Sprintf("email_%d is not a valid email address", i+1))
		}
		if prev, ok := seen[m.Email]; ok {
			return apperr.Validation(op, fmt.Sprintf("email_%d repeats email_%d", i+1, prev+1))
		}
		seen[m.Email] = i
	}
	return nil
}

// Emails returns the submitted addresses in slot order.
func (s Submission) Emails() []string {
	return s.Record("").Emails()
}

// Record converts the submission into the restriction record for familyID.
func (s Submission) Record(familyID string) models.RestrictionRecord {
	return models.RestrictionRecord{FamilyID: familyID, Members: s.Members}
}

// createdAt returns the timestamp recorded on new accounts.
func (s Submission) createdAt(now time.Time) string {
	if s.Timestamp != "" {
		return s.Timestamp
	}
	return now.UTC().Format(time.RFC3339)
}

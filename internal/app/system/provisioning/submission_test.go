package provisioning

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/domain/models"
)

func TestParseJSON(t *testing.T) {
	body := `{
		"email_1": " A@X.com ", "first_name_1": "Ann", "last_name_1": "Lee", "dietary_restrictions_1": "vegan",
		"email_2": "b@x.com", "first_name_2": "<b>Bob</b>", "last_name_2": null,
		"email_3": "", "first_name_3": "Ghost",
		"timestampt": "2024-05-01 10:00:00"
	}`

	sub, err := ParseJSON([]byte(body))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	want0 := models.MemberRestriction{Email: "a@x.com", FirstName: "Ann", LastName: "Lee", Restriction: "vegan"}
	if sub.Members[0] != want0 {
		t.Errorf("slot 1: got %+v, want %+v", sub.Members[0], want0)
	}
	if sub.Members[1].FirstName != "Bob" || sub.Members[1].LastName != "" {
		t.Errorf("slot 2 names: got %+v", sub.Members[1])
	}
	if sub.Members[1].Restriction != models.DefaultRestriction {
		t.Errorf("missing restriction should default to None, got %q", sub.Members[1].Restriction)
	}
	if !sub.Members[2].IsEmpty() || sub.Members[2].FirstName != "" {
		t.Errorf("slot without email should be empty, got %+v", sub.Members[2])
	}
	if sub.Timestamp != "2024-05-01 10:00:00" {
		t.Errorf("timestamp: got %q", sub.Timestamp)
	}
	if got := sub.Emails(); len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Errorf("Emails = %v", got)
	}
}

func TestParseJSON_NotAnObject(t *testing.T) {
	for _, body := range []string{"", "[1,2]", "email_1=a@x.com"} {
		_, err := ParseJSON([]byte(body))
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("ParseJSON(%q): expected validation error, got %v", body, err)
		}
	}
}

func TestParseForm(t *testing.T) {
	sub := ParseForm(url.Values{
		"email_1":                {"a@x.com"},
		"first_name_1":           {"Ann"},
		"dietary_restrictions_1": {"nut allergy"},
	})
	if sub.Members[0].Email != "a@x.com" || sub.Members[0].Restriction != "nut allergy" {
		t.Errorf("unexpected slot 1: %+v", sub.Members[0])
	}
}

func TestValidate(t *testing.T) {
	slot := func(email string) models.MemberRestriction {
		return models.MemberRestriction{Email: email, Restriction: models.DefaultRestriction}
	}
	tests := []struct {
		name    string
		members [models.MaxMembers]models.MemberRestriction
		want    string
	}{
		{"ok", [4]models.MemberRestriction{slot("a@x.com"), slot("b@x.com")}, ""},
		{"gap allowed", [4]models.MemberRestriction{slot("a@x.com"), {}, slot("c@x.com")}, ""},
		{"missing first", [4]models.MemberRestriction{{}, slot("b@x.com")}, "email_1 is required"},
		{"bad address", [4]models.MemberRestriction{slot("a@x.com"), slot("nope")}, "email_2 is not a valid"},
		{"repeat", [4]models.MemberRestriction{slot("a@x.com"), {}, slot("a@x.com")}, "email_3 repeats email_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Submission{Members: tt.members}.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrValidation) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want validation error containing %q", err, tt.want)
			}
		})
	}
}

func TestCreatedAt(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	if got := (Submission{}).createdAt(now); got != "2024-01-02T02:04:05Z" {
		t.Errorf("fallback timestamp: got %q", got)
	}
	if got := (Submission{Timestamp: "form-time"}).createdAt(now); got != "form-time" {
		t.Errorf("submitted timestamp: got %q", got)
	}
}

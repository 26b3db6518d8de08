package planschema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dalemusser/mealplanner/internal/domain/models"
)

func validPlan(emails ...string) models.MealPlan {
	plan := models.MealPlan{}
	for _, e := range emails {
		days := make([]models.DayEntry, models.DaysPerPlan)
		for i := range days {
			days[i] = models.DayEntry{Day: i + 1, Breakfast: "Oats", Lunch: "Salad", Dinner: "Curry"}
		}
		plan[e] = days
	}
	return plan
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestValidate_Valid(t *testing.T) {
	raw := encode(t, validPlan("a@x.com", "b@x.com"))
	if err := Validate(raw, []string{"a@x.com", "b@x.com"}); err != nil {
		t.Errorf("expected valid plan, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	short := validPlan("a@x.com")
	short["a@x.com"] = short["a@x.com"][:5]

	renumbered := validPlan("a@x.com")
	renumbered["a@x.com"][2].Day = 9

	noDinner := validPlan("a@x.com")
	noDinner["a@x.com"][0].Dinner = ""

	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"not json", []byte("Here is your plan: ..."), "not a JSON object"},
		{"broken json", []byte(`{"a@x.com": [`), "not valid JSON"},
		{"array", []byte(`[]`), "not a JSON object"},
		{"missing member", encode(t, validPlan("other@x.com")), "a@x.com: missing from plan"},
		{"too few days", encode(t, short), "has 5 days, want 7"},
		{"wrong day number", encode(t, renumbered), "entry 3 is day 9"},
		{"missing meal", encode(t, noDinner), "day 1 missing dinner"},
		{"entries not a list", []byte(`{"a@x.com": "soup"}`), "not a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.raw, []string{"a@x.com"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if len(Violations(err)) == 0 {
				t.Errorf("expected violations")
			}
		})
	}
}

func TestValidate_ExtraMember(t *testing.T) {
	raw := encode(t, validPlan("a@x.com", "stranger@x.com"))
	err := Validate(raw, []string{"a@x.com"})
	if err == nil || !strings.Contains(err.Error(), "stranger@x.com: not a family member") {
		t.Errorf("expected extra-member violation, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeLog, false},
		{"off", ModeOff, false},
		{" Reject ", ModeReject, false},
		{"log", ModeLog, false},
		{"strict", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Package planschema checks generated plan text against the shape the prompt
// asks for: a JSON object keyed by member email, each holding seven
// {day, breakfast, lunch, dinner} entries.
package planschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/mealplanner/internal/domain/models"
)

// Mode selects how a workflow reacts to a plan that fails validation.
type Mode string

const (
	ModeOff    Mode = "off"    // skip validation
	ModeLog    Mode = "log"    // store the text anyway and log the problems
	ModeReject Mode = "reject" // fail the generation before anything is stored
)

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOff, ModeLog, ModeReject:
		return m, nil
	case "":
		return ModeLog, nil
	}
	return "", fmt.Errorf("unknown plan validation mode %q (want off, log or reject)", s)
}

// Violation is one problem found in a plan document.
type Violation struct {
	Member string // empty for document-level problems
	Detail string
}

func (v Violation) String() string {
	if v.Member == "" {
		return v.Detail
	}
	return v.Member + ": " + v.Detail
}

// Error collects every violation found in one document.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "invalid meal plan: " + strings.Join(parts, "; ")
}

// Validate reports whether raw decodes to a plan covering every email in
// emails with DaysPerPlan complete entries numbered 1..7. Keys beyond the
// expected emails are reported too. A nil return means the document is well
// formed; otherwise the error is an *Error.
func Validate(raw []byte, emails []string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &Error{Violations: []Violation{{Detail: "response is not a JSON object"}}}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return &Error{Violations: []Violation{{Detail: "response is not valid JSON: " + err.Error()}}}
	}

	var vs []Violation
	expected := make(map[string]bool, len(emails))
	for _, email := range emails {
		expected[email] = true
		entriesRaw, ok := doc[email]
		if !ok {
			vs = append(vs, Violation{Member: email, Detail: "missing from plan"})
			continue
		}
		vs = append(vs, checkMember(email, entriesRaw)...)
	}
	for key := range doc {
		if !expected[key] {
			vs = append(vs, Violation{Member: key, Detail: "not a family member"})
		}
	}

	if len(vs) > 0 {
		return &Error{Violations: vs}
	}
	return nil
}

type entry struct {
	Day       *int    `json:"day"`
	Breakfast *string `json:"breakfast"`
	Lunch     *string `json:"lunch"`
	Dinner    *string `json:"dinner"`
}

func checkMember(email string, raw json.RawMessage) []Violation {
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []Violation{{Member: email, Detail: "entries are not a list of day objects"}}
	}
	if len(entries) != models.DaysPerPlan {
		return []Violation{{Member: email, Detail: fmt.Sprintf("has %d days, want %d", len(entries), models.DaysPerPlan)}}
	}

	var vs []Violation
	for i, e := range entries {
		want := i + 1
		switch {
		case e.Day == nil:
			vs = append(vs, Violation{Member: email, Detail: fmt.Sprintf("entry %d has no day", want)})
		case *e.Day != want:
			vs = append(vs, Violation{Member: email, Detail: fmt.Sprintf("entry %d is day %d", want, *e.Day)})
		}
		if missing := missingMeals(e); missing != "" {
			vs = append(vs, Violation{Member: email, Detail: fmt.Sprintf("day %d missing %s", want, missing)})
		}
	}
	return vs
}

func missingMeals(e entry) string {
	var out []string
	if e.Breakfast == nil || strings.TrimSpace(*e.Breakfast) == "" {
		out = append(out, "breakfast")
	}
	if e.Lunch == nil || strings.TrimSpace(*e.Lunch) == "" {
		out = append(out, "lunch")
	}
	if e.Dinner == nil || strings.TrimSpace(*e.Dinner) == "" {
		out = append(out, "dinner")
	}
	return strings.Join(out, ", ")
}

// Violations extracts the violation list from an error returned by Validate.
func Violations(err error) []Violation {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}

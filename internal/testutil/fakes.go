package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dalemusser/mealplanner/internal/domain/models"
)

// PlanJSON returns a well-formed seven-day plan document for emails.
func PlanJSON(emails ...string) string {
	plan := models.MealPlan{}
	for _, e := range emails {
		days := make([]models.DayEntry, models.DaysPerPlan)
		for i := range days {
			days[i] = models.DayEntry{Day: i + 1, Breakfast: "Oatmeal", Lunch: "Lentil soup", Dinner: "Baked salmon"}
		}
		plan[e] = days
	}
	b, _ := json.MarshalIndent(plan, "", "  ")
	return string(b)
}

// FakeGenerator records prompts and answers with Response, or with the
// result of Func when set.
type FakeGenerator struct {
	Response string
	Err      error
	Func     func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (g *FakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.Func != nil {
		return g.Func(prompt)
	}
	return g.Response, g.Err
}

// Prompts returns the prompts received so far.
func (g *FakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Notice is one notification captured by RecordingNotifier.
type Notice struct {
	Template  string
	Email     string
	FirstName string
	Password  string
}

// RecordingNotifier captures notifications instead of sending them.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *RecordingNotifier) record(x Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, x)
}

func (n *RecordingNotifier) NewAccount(_ context.Context, email, firstName, password string) {
	n.record(Notice{Template: "new_account", Email: email, FirstName: firstName, Password: password})
}

func (n *RecordingNotifier) PlanUpdated(_ context.Context, email, firstName string) {
	n.record(Notice{Template: "plan_updated", Email: email, FirstName: firstName})
}

func (n *RecordingNotifier) DuplicateRejected(_ context.Context, email string) {
	n.record(Notice{Template: "duplicate_rejected", Email: email})
}

// Notices returns the captured notifications, optionally filtered by template.
func (n *RecordingNotifier) Notices(template string) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notice
	for _, x := range n.notices {
		if template == "" || x.Template == template {
			out = append(out, x)
		}
	}
	return out
}

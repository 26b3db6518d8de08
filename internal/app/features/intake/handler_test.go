package intake_test

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/mealplanner/internal/app/features/intake"
	credentialstore "github.com/dalemusser/mealplanner/internal/app/store/credentials"
	mealplanstore "github.com/dalemusser/mealplanner/internal/app/store/mealplans"
	restrictionstore "github.com/dalemusser/mealplanner/internal/app/store/restrictions"
	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/auditlog"
	"github.com/dalemusser/mealplanner/internal/app/system/planschema"
	"github.com/dalemusser/mealplanner/internal/app/system/provisioning"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/dalemusser/mealplanner/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	handler  *intake.Handler
	accounts *credentialstore.FileStore
	gen      *testutil.FakeGenerator
	notifier *testutil.RecordingNotifier
	audit    *observer.ObservedLogs
	plansDir string
}

func newTestHandler(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		accounts: credentialstore.NewFileStore(testutil.LocalStorage(t, filepath.Join(root, "data")), credentialstore.DefaultFile),
		gen:      &testutil.FakeGenerator{},
		notifier: &testutil.RecordingNotifier{},
		plansDir: filepath.Join(root, "meal_plans"),
	}
	wf := &provisioning.Workflow{
		Accounts:       f.accounts,
		Restrictions:   restrictionstore.New(testutil.LocalStorage(t, f.plansDir)),
		Plans:          mealplanstore.New(testutil.LocalStorage(t, f.plansDir)),
		Generator:      f.gen,
		Notifier:       f.notifier,
		Validation:     planschema.ModeLog,
		PasswordLength: 8,
		Log:            zap.NewNop(),
		NewFamilyID:    func() string { return "fam-1" },
	}
	core, logs := observer.New(zapcore.InfoLevel)
	f.audit = logs
	f.handler = intake.NewHandler(wf, auditlog.New(zap.New(core), auditlog.Config{}), zap.NewNop())
	return f
}

func (f *fixture) serve(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	intake.Routes(f.handler).ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmit_RawJSON(t *testing.T) {
	f := newTestHandler(t)
	f.gen.Response = testutil.PlanJSON("a@x.com", "b@x.com")

	// the form service posts JSON without a JSON content type
	req := testutil.NewJSONRequest(http.MethodPost, "/",
		`{"email_1":"a@x.com","first_name_1":"A","dietary_restrictions_1":"vegan","email_2":"b@x.com","first_name_2":"B"}`)
	req.Header.Set("Content-Type", "text/plain")

	rec := f.serve(req)

	rec.AssertStatus(t, http.StatusOK)
	resp := rec.DecodeJSON(t)
	wantPath := filepath.Join(f.plansDir, "fam-1", "1.json")
	if resp["path"] != wantPath {
		t.Errorf("path: got %v, want %s", resp["path"], wantPath)
	}
	if msg, _ := resp["message"].(string); !strings.HasSuffix(msg, wantPath) {
		t.Errorf("message: got %q", msg)
	}

	fam, err := f.accounts.FamilyMembers(context.Background(), "fam-1")
	if err != nil || len(fam) != 2 {
		t.Errorf("family members: got %d (%v), want 2", len(fam), err)
	}
	events := f.audit.FilterField(zap.String("event_type", auditlog.EventFamilyProvisioned)).All()
	if len(events) != 1 || events[0].ContextMap()["family_id"] != "fam-1" {
		t.Errorf("expected one provisioning audit event, got %v", events)
	}
}

func TestHandleSubmit_Form(t *testing.T) {
	f := newTestHandler(t)
	f.gen.Response = testutil.PlanJSON("a@x.com")

	rec := f.serve(testutil.NewFormRequest("/", url.Values{
		"email_1":      {"a@x.com"},
		"first_name_1": {"A"},
	}))

	rec.AssertStatus(t, http.StatusOK)
}

func TestHandleSubmit_Duplicate(t *testing.T) {
	f := newTestHandler(t)
	if err := f.accounts.Create(context.Background(), models.Account{Email: "a@x.com", FamilyID: "old"}); err != nil {
		t.Fatal(err)
	}

	rec := f.serve(testutil.NewJSONRequest(http.MethodPost, "/", `{"email_1":"a@x.com"}`))

	rec.AssertStatus(t, http.StatusBadRequest)
	resp := rec.DecodeJSON(t)
	if resp["error"] != "Email already registered" || resp["email"] != "a@x.com" {
		t.Errorf("unexpected body: %v", resp)
	}
	if n := f.notifier.Notices("duplicate_rejected"); len(n) != 1 {
		t.Errorf("rejection notices: got %d, want 1", len(n))
	}
	events := f.audit.FilterField(zap.String("event_type", auditlog.EventSubmissionDuplicateEmail)).All()
	if len(events) != 1 || events[0].ContextMap()["email"] != "a@x.com" {
		t.Errorf("expected one duplicate audit event, got %v", events)
	}
}

func TestHandleSubmit_Malformed(t *testing.T) {
	f := newTestHandler(t)

	for _, body := range []string{"{not json", `{"first_name_1":"A"}`} {
		rec := f.serve(testutil.NewJSONRequest(http.MethodPost, "/", body))
		rec.AssertStatus(t, http.StatusBadRequest)
		if got := rec.DecodeJSON(t)["error"]; got != "Validation error" {
			t.Errorf("error: got %v", got)
		}
	}
}

func TestHandleSubmit_GenerationFailure(t *testing.T) {
	f := newTestHandler(t)
	f.gen.Err = apperr.New(apperr.KindUpstreamGeneration, "test", "upstream down")

	rec := f.serve(testutil.NewJSONRequest(http.MethodPost, "/", `{"email_1":"a@x.com"}`))

	rec.AssertStatus(t, http.StatusInternalServerError)
	resp := rec.DecodeJSON(t)
	if resp["error"] != "Internal error" {
		t.Errorf("unexpected body: %v", resp)
	}
	if strings.Contains(rec.Body.String(), "upstream down") {
		t.Errorf("internal detail leaked to client")
	}
}

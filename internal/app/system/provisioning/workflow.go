// Package provisioning runs family intake: it validates a submission,
// rejects it if any member is already registered, creates the member
// accounts, and stores the family's first generated meal plan. It also
// exposes the generate-and-store step the refresh worker reuses.
package provisioning

import (
	"context"
	"errors"
	"sync"
	"time"

	credentialstore "github.com/dalemusser/mealplanner/internal/app/store/credentials"
	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/generator"
	"github.com/dalemusser/mealplanner/internal/app/system/metrics"
	"github.com/dalemusser/mealplanner/internal/app/system/passwords"
	"github.com/dalemusser/mealplanner/internal/app/system/planschema"
	"github.com/dalemusser/mealplanner/internal/app/system/prompt"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RestrictionSaver persists a family's restriction record.
type RestrictionSaver interface {
	Save(ctx context.Context, familyID string, rec models.RestrictionRecord) error
}

// PlanSaver persists a generated plan as the family's next version.
type PlanSaver interface {
	Save(ctx context.Context, familyID string, doc []byte) (models.PlanVersion, error)
}

// Notifier delivers the intake emails. Implementations must not block on
// or report delivery failures.
type Notifier interface {
	NewAccount(ctx context.Context, email, firstName, password string)
	DuplicateRejected(ctx context.Context, email string)
}

// Result describes a completed submission.
type Result struct {
	FamilyID string
	Plan     models.PlanVersion
	Accounts []string // emails registered, in slot order
}

// Workflow wires the stores, generator and notifier together. All fields
// except Metrics, NewFamilyID and Now are required.
type Workflow struct {
	Accounts       credentialstore.Store
	Restrictions   RestrictionSaver
	Plans          PlanSaver
	Generator      generator.Generator
	Notifier       Notifier
	Validation     planschema.Mode
	PasswordLength int
	Metrics        *metrics.Metrics
	Log            *zap.Logger

	NewFamilyID func() string
	Now         func() time.Time

	// mu serializes the duplicate check with account creation so two
	// submissions in this process cannot both claim the same email.
	mu sync.Mutex
}

func (w *Workflow) familyID() string {
	if w.NewFamilyID != nil {
		return w.NewFamilyID()
	}
	return uuid.NewString()
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Submit provisions a family from sub and returns where its first plan was
// stored.
//
// If any submitted email is already registered the owner of the first such
// address is notified and an apperr DuplicateAccount error is returned;
// nothing is written in that case.
func (w *Workflow) Submit(ctx context.Context, sub Submission) (Result, error) {
	if err := sub.Validate(); err != nil {
		w.Metrics.Submission("invalid")
		return Result{}, err
	}

	familyID, issued, err := w.provisionAccounts(ctx, sub)
	// Mail is sent outside mu. Accounts created before a failure still get
	// their password.
	for _, c := range issued {
		w.Notifier.NewAccount(ctx, c.email, c.firstName, c.password)
	}
	if err != nil {
		var e *apperr.Error
		switch {
		case errors.Is(err, apperr.ErrDuplicateAccount):
			w.Metrics.Submission("duplicate")
			if errors.As(err, &e) && e.Email != "" {
				w.Notifier.DuplicateRejected(ctx, e.Email)
			}
		default:
			w.Metrics.Submission("failed")
		}
		return Result{}, err
	}

	accounts := make([]string, 0, len(issued))
	for _, c := range issued {
		accounts = append(accounts, c.email)
	}

	rec := sub.Record(familyID)
	if err := w.Restrictions.Save(ctx, familyID, rec); err != nil {
		w.Metrics.Submission("failed")
		return Result{}, err
	}

	plan, err := w.GeneratePlan(ctx, rec, nil, metrics.TriggerIntake)
	if err != nil {
		w.Metrics.Submission("failed")
		return Result{}, err
	}

	w.Metrics.Submission("accepted")
	w.Log.Info("family provisioned",
		zap.String("family_id", familyID),
		zap.Int("members", len(accounts)),
		zap.String("path", plan.Path))

	return Result{FamilyID: familyID, Plan: plan, Accounts: accounts}, nil
}

// issuedAccount is a created account whose password still has to be mailed.
type issuedAccount struct {
	email     string
	firstName string
	password  string
}

// provisionAccounts runs the duplicate check and creates one account per
// submitted member, all under a new family id. Only the check and the
// creates run under mu; the caller sends the mail. On failure the accounts
// already created are returned alongside the error.
func (w *Workflow) provisionAccounts(ctx context.Context, sub Submission) (string, []issuedAccount, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ok, dup, err := w.Accounts.ExistsDuplicate(ctx, sub.Emails())
	if err != nil {
		return "", nil, err
	}
	if !ok {
		w.Log.Info("submission rejected: email already registered", zap.String("email", dup))
		return "", nil, apperr.Duplicate("intake.dedup", dup)
	}

	familyID := w.familyID()
	createdAt := sub.createdAt(w.now())
	length := w.PasswordLength
	if length <= 0 {
		length = passwords.DefaultLength
	}

	var issued []issuedAccount
	for _, m := range sub.Members {
		if m.IsEmpty() {
			continue
		}

		plain, err := passwords.Generate(length)
		if err != nil {
			return "", issued, apperr.Wrap(apperr.KindPersistence, "intake.password", err)
		}
		hash, err := passwords.Hash(plain)
		if err != nil {
			return "", issued, apperr.Wrap(apperr.KindPersistence, "intake.password", err)
		}

		acct := models.Account{
			Email:        m.Email,
			FirstName:    m.FirstName,
			LastName:     m.LastName,
			PasswordHash: hash,
			FamilyID:     familyID,
			CreatedAt:    createdAt,
		}
		if err := w.Accounts.Create(ctx, acct); err != nil {
			if len(issued) > 0 {
				created := make([]string, 0, len(issued))
				for _, c := range issued {
					created = append(created, c.email)
				}
				w.Log.Error("account creation failed after partial provisioning",
					zap.String("family_id", familyID),
					zap.Strings("created", created),
					zap.String("email", m.Email),
					zap.Error(err))
			}
			return "", issued, err
		}
		issued = append(issued, issuedAccount{email: m.Email, firstName: m.FirstName, password: plain})
		w.Metrics.AccountCreated()
	}
	return familyID, issued, nil
}

// GeneratePlan builds the prompt for rec (with prior as context when
// non-empty), asks the generator for a plan, applies the validation mode and
// stores the text as the family's next version. trigger labels metrics.
func (w *Workflow) GeneratePlan(ctx context.Context, rec models.RestrictionRecord, prior []byte, trigger string) (models.PlanVersion, error) {
	text := prompt.Build(rec, prior)

	genCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Generation(), w.Log, "generate meal plan")
	raw, err := w.Generator.Generate(genCtx, text)
	cancel()
	if err != nil {
		w.Metrics.GenerationFailed(trigger)
		return models.PlanVersion{}, apperr.Wrap(apperr.KindUpstreamGeneration, "plan.generate", err)
	}

	if w.Validation != planschema.ModeOff {
		if verr := planschema.Validate([]byte(raw), rec.Emails()); verr != nil {
			w.Log.Warn("generated plan failed validation",
				zap.String("family_id", rec.FamilyID),
				zap.String("trigger", trigger),
				zap.Error(verr))
			if w.Validation == planschema.ModeReject {
				w.Metrics.GenerationFailed(trigger)
				e := apperr.New(apperr.KindUpstreamGeneration, "plan.validate", "generated plan did not match the requested format")
				e.Err = verr
				return models.PlanVersion{}, e
			}
		}
	}

	pv, err := w.Plans.Save(ctx, rec.FamilyID, []byte(raw))
	if err != nil {
		return models.PlanVersion{}, err
	}
	w.Metrics.PlanGenerated(trigger)
	return pv, nil
}

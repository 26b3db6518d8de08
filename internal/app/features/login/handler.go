package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/auditlog"
	"github.com/dalemusser/mealplanner/internal/app/system/limits"
	"github.com/dalemusser/mealplanner/internal/app/system/normalize"
	"github.com/dalemusser/mealplanner/internal/app/system/passwords"
	"github.com/dalemusser/mealplanner/internal/app/system/ratelimit"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"go.uber.org/zap"
)

// Accounts is the part of the credential store login reads.
type Accounts interface {
	Get(ctx context.Context, email string) (models.Account, error)
	FamilyMembers(ctx context.Context, familyID string) ([]models.Account, error)
}

// Handler verifies member credentials.
type Handler struct {
	Accounts Accounts
	Limiter  *ratelimit.LoginLimiter // optional
	Audit    *auditlog.Logger        // optional
	Log      *zap.Logger
}

func NewHandler(accounts Accounts, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Limiter:  limiter,
		Audit:    audit,
		Log:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Email         string                `json:"email"`
	FirstName     string                `json:"first_name"`
	LastName      string                `json:"last_name"`
	FamilyID      string                `json:"family_id"`
	Timestamp     string                `json:"timestamp"`
	FamilyMembers []models.FamilyMember `json:"family_members"`
}

var errInvalidCredentials = apperr.New(apperr.KindInvalidCredentials, "login", "Invalid email or password")

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin checks {email, password} and returns the account with the
// other members of its family. Unknown emails and wrong passwords get the
// same 401 response.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginSize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, r, h.Log, apperr.Validation("login", "request body must be a JSON object with email and password"))
		return
	}

	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apperr.WriteError(w, r, h.Log, apperr.Validation("login", "email and password are required"))
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Audit.LoginFailedRateLimit(r.Context(), r, email, reason)
			apperr.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": reason})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.Accounts.Get(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		h.Audit.LoginFailedUnknownEmail(ctx, r, email)
		apperr.WriteError(w, r, h.Log, errInvalidCredentials)
		return
	}
	if err != nil {
		apperr.WriteError(w, r, h.Log, err)
		return
	}

	if !passwords.Verify(acct.PasswordHash, req.Password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, email, acct.FamilyID)
		apperr.WriteError(w, r, h.Log, errInvalidCredentials)
		return
	}

	family, err := h.Accounts.FamilyMembers(ctx, acct.FamilyID)
	if err != nil {
		apperr.WriteError(w, r, h.Log, err)
		return
	}

	members := make([]models.FamilyMember, 0, len(family))
	for _, m := range family {
		if m.Email == acct.Email {
			continue
		}
		members = append(members, m.Member())
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.Audit.LoginSuccess(ctx, r, email, acct.FamilyID)

	apperr.WriteJSON(w, http.StatusOK, loginResponse{
		Email:         acct.Email,
		FirstName:     acct.FirstName,
		LastName:      acct.LastName,
		FamilyID:      acct.FamilyID,
		Timestamp:     acct.CreatedAt,
		FamilyMembers: members,
	})
}

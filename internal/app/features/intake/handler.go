// Package intake serves the family submission webhook.
package intake

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/auditlog"
	"github.com/dalemusser/mealplanner/internal/app/system/limits"
	"github.com/dalemusser/mealplanner/internal/app/system/provisioning"
	"go.uber.org/zap"
)

// Submitter provisions a family from a parsed submission.
type Submitter interface {
	Submit(ctx context.Context, sub provisioning.Submission) (provisioning.Result, error)
}

// Handler accepts family submissions.
type Handler struct {
	Workflow Submitter
	Audit    *auditlog.Logger // optional
	Log      *zap.Logger
}

func NewHandler(wf Submitter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Workflow: wf, Audit: audit, Log: logger}
}

type submitResponse struct {
	Message  string `json:"message"`
	Path     string `json:"path"`
	FamilyID string `json:"family_id"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /webhook                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSubmit parses the body as a form when the request says so and as a
// JSON object otherwise, whatever its declared content type.
//
// The submission runs detached from the client connection: once accounts are
// being created, a client that hangs up does not abandon the family half-built.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSubmissionSize)

	sub, err := h.parse(r)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	res, err := h.Workflow.Submit(ctx, sub)
	if err != nil {
		h.reject(w, r, err)
		return
	}
	h.Audit.FamilyProvisioned(ctx, r, res.FamilyID, res.Accounts, res.Plan.Path)

	apperr.WriteJSON(w, http.StatusOK, submitResponse{
		Message:  "Combined meal plan saved to " + res.Plan.Path,
		Path:     res.Plan.Path,
		FamilyID: res.FamilyID,
	})
}

// reject records the failed submission and writes the error response.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	switch {
	case errors.As(err, &e) && e.Kind == apperr.KindDuplicateAccount:
		h.Audit.SubmissionDuplicateEmail(r.Context(), r, e.Email)
	case errors.As(err, &e):
		h.Audit.SubmissionRejected(r.Context(), r, string(e.Kind))
	default:
		h.Audit.SubmissionRejected(r.Context(), r, "internal")
	}
	apperr.WriteError(w, r, h.Log, err)
}

func (h *Handler) parse(r *http.Request) (provisioning.Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return provisioning.Submission{}, apperr.Validation("intake.parse", "malformed form body")
		}
		return provisioning.ParseForm(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(limits.MaxSubmissionSize); err != nil {
			return provisioning.Submission{}, apperr.Validation("intake.parse", "malformed form body")
		}
		return provisioning.ParseForm(r.PostForm), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return provisioning.Submission{}, apperr.Validation("intake.parse", "request body could not be read")
	}
	return provisioning.ParseJSON(body)
}

// internal/app/system/mailer/notifier.go
package mailer

import (
	"context"

	"github.com/dalemusser/mealplanner/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Template names used in logs and metrics.
const (
	TemplateNewAccount        = "new_account"
	TemplatePlanUpdated       = "plan_updated"
	TemplateDuplicateRejected = "duplicate_rejected"
)

// Sender is what Notifier needs from a Mailer.
type Sender interface {
	Send(ctx context.Context, msg Email) error
}

// Notifier sends the service's account and plan emails. Delivery is best
// effort: failures are logged and counted, never returned, and never retried.
type Notifier struct {
	sender   Sender
	siteName string
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewNotifier returns a Notifier that brands messages with siteName.
func NewNotifier(sender Sender, siteName string, m *metrics.Metrics, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sender: sender, siteName: siteName, metrics: m, log: logger}
}

// NewAccount tells a member their account exists and what their password is.
func (n *Notifier) NewAccount(ctx context.Context, email, firstName, password string) {
	n.deliver(ctx, TemplateNewAccount, BuildNewAccountEmail(NewAccountEmailData{
		SiteName:  n.siteName,
		FirstName: firstName,
		Email:     email,
		Password:  password,
	}))
}

// PlanUpdated tells a member a new plan was generated for their family.
func (n *Notifier) PlanUpdated(ctx context.Context, email, firstName string) {
	n.deliver(ctx, TemplatePlanUpdated, BuildPlanUpdatedEmail(PlanUpdatedEmailData{
		SiteName:  n.siteName,
		FirstName: firstName,
		Email:     email,
	}))
}

// DuplicateRejected tells the owner of an already-registered address that a
// submission naming it was refused.
func (n *Notifier) DuplicateRejected(ctx context.Context, email string) {
	n.deliver(ctx, TemplateDuplicateRejected, BuildDuplicateRejectedEmail(DuplicateRejectedEmailData{
		SiteName: n.siteName,
		Email:    email,
	}))
}

func (n *Notifier) deliver(ctx context.Context, template string, msg Email) {
	if n == nil || n.sender == nil {
		return
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.metrics.Notification(template, "failed")
		n.log.Warn("email delivery failed",
			zap.String("template", template),
			zap.String("to", msg.To),
			zap.Error(err))
		return
	}
	n.metrics.Notification(template, "sent")
	n.log.Info("email sent",
		zap.String("template", template),
		zap.String("to", msg.To))
}

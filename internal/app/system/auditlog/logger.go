// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/mealplanner/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Event categories.
const (
	CategoryAuth   = "auth"
	CategoryIntake = "intake"
)

// Event types.
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUnknownEmail  = "login_failed_unknown_email"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventFamilyProvisioned        = "family_provisioned"
	EventSubmissionRejected       = "submission_rejected"
	EventSubmissionDuplicateEmail = "submission_duplicate_email"
)

// Settings for a category.
const (
	SettingLog = "log" // write to the structured log
	SettingOff = "off" // drop
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for /login attempts: "log" or "off".
	Auth string
	// Intake controls logging for /webhook submissions: "log" or "off".
	Intake string
}

// ParseSetting validates a category setting. Empty means "log".
func ParseSetting(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return SettingLog, nil
	case SettingLog, SettingOff:
		return v, nil
	default:
		return "", fmt.Errorf("audit setting %q: want %q or %q", s, SettingLog, SettingOff)
	}
}

// Event is one security-relevant action.
type Event struct {
	Category      string
	EventType     string
	Email         string
	FamilyID      string
	IP            string
	UserAgent     string
	Success       bool
	FailureReason string
	Details       map[string]string
}

// Logger writes audit events to the structured log under a consistent shape
// ("audit": true) so they can be filtered out of the general stream.
type Logger struct {
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{zapLog: zapLog, config: config}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case CategoryAuth:
		setting = l.config.Auth
	case CategoryIntake:
		setting = l.config.Intake
	}
	if setting == SettingOff {
		return
	}

	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.FamilyID != "" {
		fields = append(fields, zap.String("family_id", event.FamilyID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func fromRequest(r *http.Request, e Event) Event {
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, email, familyID string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:  CategoryAuth,
		EventType: EventLoginSuccess,
		Email:     email,
		FamilyID:  familyID,
		Success:   true,
	}))
}

// LoginFailedUnknownEmail logs a login for an email with no account.
func (l *Logger) LoginFailedUnknownEmail(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:      CategoryAuth,
		EventType:     EventLoginFailedUnknownEmail,
		Email:         email,
		FailureReason: "account not found",
	}))
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, email, familyID string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:      CategoryAuth,
		EventType:     EventLoginFailedWrongPassword,
		Email:         email,
		FamilyID:      familyID,
		FailureReason: "wrong password",
	}))
}

// LoginFailedRateLimit logs a login refused by the limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:      CategoryAuth,
		EventType:     EventLoginFailedRateLimit,
		Email:         email,
		FailureReason: reason,
	}))
}

// --- Intake Events ---

// FamilyProvisioned logs a submission that created accounts and a plan.
func (l *Logger) FamilyProvisioned(ctx context.Context, r *http.Request, familyID string, accounts []string, planPath string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:  CategoryIntake,
		EventType: EventFamilyProvisioned,
		FamilyID:  familyID,
		Success:   true,
		Details: map[string]string{
			"accounts":      strings.Join(accounts, ","),
			"account_count": strconv.Itoa(len(accounts)),
			"plan_path":     planPath,
		},
	}))
}

// SubmissionDuplicateEmail logs a submission refused because email is
// already registered.
func (l *Logger) SubmissionDuplicateEmail(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:      CategoryIntake,
		EventType:     EventSubmissionDuplicateEmail,
		Email:         email,
		FailureReason: "email already registered",
	}))
}

// SubmissionRejected logs any other failed submission.
func (l *Logger) SubmissionRejected(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, fromRequest(r, Event{
		Category:      CategoryIntake,
		EventType:     EventSubmissionRejected,
		FailureReason: reason,
	}))
}

// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mealplanner/internal/app/system/auditlog"
	"github.com/dalemusser/mealplanner/internal/app/system/passwords"
	"github.com/dalemusser/mealplanner/internal/app/system/planschema"
	"github.com/dalemusser/mealplanner/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Accepted values for the enumerated keys.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"

	TransportSMTP = "smtp"
	TransportSES  = "ses"
	TransportLog  = "log"
)

// appConfigKeys defines the configuration keys for the meal planner.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: openai_api_key, meal_plans_dir, etc.
//   - Environment variables: MEALPLANNER_OPENAI_API_KEY, MEALPLANNER_MEAL_PLANS_DIR, etc.
//   - Command-line flags: --openai_api_key, --meal_plans_dir, etc.
var appConfigKeys = []config.AppKey{
	{Name: "data_dir", Default: "data", Desc: "Directory holding user_credentials.json"},
	{Name: "meal_plans_dir", Default: "meal_plans", Desc: "Directory holding one folder per family"},

	// Credential backend
	{Name: "credential_backend", Default: BackendFile, Desc: "Account storage: 'file' or 'mongo'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (mongo backend)"},
	{Name: "mongo_database", Default: "mealplanner", Desc: "MongoDB database name (mongo backend)"},

	// Completion API
	{Name: "openai_api_key", Default: "", Desc: "API key for the chat completion service (required)"},
	{Name: "openai_base_url", Default: "", Desc: "Override the completion API base URL"},
	{Name: "openai_model", Default: "gpt-3.5-turbo", Desc: "Chat completion model"},
	{Name: "openai_max_tokens", Default: 4096, Desc: "Maximum tokens per completion"},

	// Email
	{Name: "mail_transport", Default: TransportSMTP, Desc: "Email transport: 'smtp', 'ses', or 'log'"},
	{Name: "mail_smtp_host", Default: "smtp.gmail.com", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "", Desc: "From email address (defaults to mail_smtp_user)"},
	{Name: "mail_from_name", Default: "Family Meal Plans", Desc: "From display name"},
	{Name: "mail_ses_region", Default: "", Desc: "AWS region for SES delivery"},

	// Weekly refresh
	{Name: "refresh_enabled", Default: true, Desc: "Regenerate every family's plan on a schedule"},
	{Name: "refresh_schedule", Default: workers.DefaultRefreshSchedule, Desc: "Cron spec for the refresh cycle"},
	{Name: "refresh_timezone", Default: "Local", Desc: "Time zone the refresh schedule runs in"},

	{Name: "plan_validation", Default: string(planschema.ModeLog), Desc: "Generated plan check: 'off', 'log', or 'reject'"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "log", Desc: "Login event logging: 'log' or 'off'"},
	{Name: "audit_log_intake", Default: "log", Desc: "Submission event logging: 'log' or 'off'"},

	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated list of allowed CORS origins"},
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per minute per client IP"},
	{Name: "password_length", Default: 12, Desc: "Length of generated member passwords"},
	{Name: "timeout_generation", Default: "2m", Desc: "Deadline for one plan generation (e.g., 90s, 2m)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MEALPLANNER_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MEALPLANNER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DataDir:      appValues.String("data_dir"),
		MealPlansDir: appValues.String("meal_plans_dir"),

		CredentialBackend: strings.ToLower(strings.TrimSpace(appValues.String("credential_backend"))),
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),

		OpenAIAPIKey:    strings.TrimSpace(appValues.String("openai_api_key")),
		OpenAIBaseURL:   appValues.String("openai_base_url"),
		OpenAIModel:     appValues.String("openai_model"),
		OpenAIMaxTokens: appValues.Int("openai_max_tokens"),

		MailTransport: strings.ToLower(strings.TrimSpace(appValues.String("mail_transport"))),
		MailSMTPHost:  appValues.String("mail_smtp_host"),
		MailSMTPPort:  appValues.Int("mail_smtp_port"),
		MailSMTPUser:  appValues.String("mail_smtp_user"),
		MailSMTPPass:  appValues.String("mail_smtp_pass"),
		MailFrom:      appValues.String("mail_from"),
		MailFromName:  appValues.String("mail_from_name"),
		MailSESRegion: appValues.String("mail_ses_region"),

		RefreshEnabled:  appValues.Bool("refresh_enabled"),
		RefreshSchedule: appValues.String("refresh_schedule"),
		RefreshTimezone: appValues.String("refresh_timezone"),

		PlanValidation: appValues.String("plan_validation"),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogIntake: appValues.String("audit_log_intake"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		LoginRateLimit:     appValues.Int("login_rate_limit"),
		PasswordLength:     appValues.Int("password_length"),
		TimeoutGeneration:  appValues.Duration("timeout_generation", 2*time.Minute),
	}

	if appCfg.MailFrom == "" {
		appCfg.MailFrom = appCfg.MailSMTPUser
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Every problem found is reported together.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	if appCfg.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("openai_api_key is required"))
	}

	switch appCfg.CredentialBackend {
	case BackendFile:
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
		}
		if appCfg.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo_database is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("credential_backend %q: want %q or %q", appCfg.CredentialBackend, BackendFile, BackendMongo))
	}

	switch appCfg.MailTransport {
	case TransportSMTP:
		if appCfg.MailSMTPHost == "" || appCfg.MailSMTPPort <= 0 {
			errs = append(errs, errors.New("mail_smtp_host and mail_smtp_port are required for smtp delivery"))
		}
		if appCfg.MailFrom == "" {
			errs = append(errs, errors.New("mail_from (or mail_smtp_user) is required for smtp delivery"))
		}
	case TransportSES:
		if appCfg.MailSESRegion == "" {
			errs = append(errs, errors.New("mail_ses_region is required for ses delivery"))
		}
		if appCfg.MailFrom == "" {
			errs = append(errs, errors.New("mail_from is required for ses delivery"))
		}
	case TransportLog:
	default:
		errs = append(errs, fmt.Errorf("mail_transport %q: want smtp, ses or log", appCfg.MailTransport))
	}

	if _, err := planschema.ParseMode(appCfg.PlanValidation); err != nil {
		errs = append(errs, err)
	}

	for _, setting := range []string{appCfg.AuditLogAuth, appCfg.AuditLogIntake} {
		if _, err := auditlog.ParseSetting(setting); err != nil {
			errs = append(errs, err)
		}
	}

	if appCfg.RefreshEnabled {
		if _, err := workers.ParseSchedule(appCfg.RefreshSchedule); err != nil {
			errs = append(errs, err)
		}
		if _, err := time.LoadLocation(appCfg.RefreshTimezone); err != nil {
			errs = append(errs, fmt.Errorf("refresh_timezone: %w", err))
		}
	}

	if appCfg.PasswordLength < 8 || appCfg.PasswordLength > passwords.MaxLength {
		errs = append(errs, fmt.Errorf("password_length %d: must be between 8 and %d", appCfg.PasswordLength, passwords.MaxLength))
	}
	if appCfg.LoginRateLimit < 1 {
		errs = append(errs, errors.New("login_rate_limit must be positive"))
	}
	if appCfg.TimeoutGeneration <= 0 {
		errs = append(errs, errors.New("timeout_generation must be positive"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

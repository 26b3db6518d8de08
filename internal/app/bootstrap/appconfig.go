// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles the
// framework-level settings: ports, TLS, logging level and request limits.
type AppConfig struct {
	// Storage roots
	DataDir      string // holds user_credentials.json
	MealPlansDir string // holds one folder per family

	// Credential backend: "file" or "mongo"
	CredentialBackend string
	MongoURI          string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase     string // Database name within MongoDB

	// Completion API
	OpenAIAPIKey    string
	OpenAIBaseURL   string // blank uses the public endpoint
	OpenAIModel     string
	OpenAIMaxTokens int

	// Email delivery
	MailTransport string // "smtp", "ses", or "log"
	MailSMTPHost  string // SMTP server host (e.g., smtp.gmail.com, localhost for Mailpit)
	MailSMTPPort  int    // SMTP server port (587 for STARTTLS, 1025 for Mailpit)
	MailSMTPUser  string // SMTP username
	MailSMTPPass  string // SMTP password
	MailFrom      string // From email address; falls back to MailSMTPUser
	MailFromName  string // From display name
	MailSESRegion string // AWS region when MailTransport is "ses"

	// Weekly refresh
	RefreshEnabled  bool
	RefreshSchedule string // 5-field cron spec
	RefreshTimezone string // IANA zone name or "Local"

	// Plan validation gate: "off", "log", or "reject"
	PlanValidation string

	// Audit logging: "log" or "off" per category
	AuditLogAuth   string
	AuditLogIntake string

	// HTTP surface
	CORSAllowedOrigins []string
	LoginRateLimit     int // attempts per minute per client IP

	PasswordLength    int
	TimeoutGeneration time.Duration
}

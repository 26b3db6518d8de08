// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	credentialstore "github.com/dalemusser/mealplanner/internal/app/store/credentials"
	mealplanstore "github.com/dalemusser/mealplanner/internal/app/store/mealplans"
	restrictionstore "github.com/dalemusser/mealplanner/internal/app/store/restrictions"
	"github.com/dalemusser/mealplanner/internal/app/system/auditlog"
	"github.com/dalemusser/mealplanner/internal/app/system/generator"
	"github.com/dalemusser/mealplanner/internal/app/system/mailer"
	"github.com/dalemusser/mealplanner/internal/app/system/metrics"
	"github.com/dalemusser/mealplanner/internal/app/system/planschema"
	"github.com/dalemusser/mealplanner/internal/app/system/provisioning"
	"github.com/dalemusser/mealplanner/internal/app/system/ratelimit"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"github.com/dalemusser/mealplanner/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// intakePerMinute caps /webhook submissions per client IP.
const intakePerMinute = 20

// services are the long-lived components shared by the handlers and the
// refresh worker. Startup builds them; BuildHandler and Shutdown use them.
type services struct {
	metrics      *metrics.Metrics
	accounts     credentialstore.Store
	restrictions *restrictionstore.Store
	plans        *mealplanstore.Store
	notifier     *mailer.Notifier
	audit        *auditlog.Logger
	workflow     *provisioning.Workflow
	refresh      *workers.MealPlanRefresh // nil when refresh is disabled

	loginLimiter  *ratelimit.LoginLimiter
	intakeLimiter *ratelimit.Limiter
}

// svc is set by Startup.
var svc *services

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the stores, the completion client, the mailer and the intake workflow, and
// starts the weekly refresh worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Generation: appCfg.TimeoutGeneration})
	logger.Info("timeouts configured", zap.Any("timeouts", timeouts.Current()))

	m := metrics.New()

	gen, err := generator.NewOpenAI(generator.Config{
		APIKey:    appCfg.OpenAIAPIKey,
		BaseURL:   appCfg.OpenAIBaseURL,
		Model:     appCfg.OpenAIModel,
		MaxTokens: appCfg.OpenAIMaxTokens,
	}, m, logger)
	if err != nil {
		return fmt.Errorf("completion client: %w", err)
	}

	transport, err := newMailTransport(ctx, appCfg, logger)
	if err != nil {
		return err
	}

	s, err := buildServices(appCfg, deps, m, gen, transport, logger)
	if err != nil {
		return err
	}

	if s.refresh != nil {
		if err := s.refresh.Start(); err != nil {
			return fmt.Errorf("start refresh worker: %w", err)
		}
	}

	svc = s
	return nil
}

// newMailTransport picks the delivery backend named by mail_transport.
func newMailTransport(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (mailer.Transport, error) {
	switch appCfg.MailTransport {
	case TransportSES:
		t, err := mailer.NewSESTransport(ctx, appCfg.MailSESRegion)
		if err != nil {
			return nil, fmt.Errorf("ses transport: %w", err)
		}
		logger.Info("email via SES", zap.String("region", appCfg.MailSESRegion))
		return t, nil
	case TransportLog:
		logger.Warn("email delivery disabled; messages are logged only")
		return mailer.NewLogTransport(logger), nil
	default:
		logger.Info("email via SMTP",
			zap.String("host", appCfg.MailSMTPHost),
			zap.Int("port", appCfg.MailSMTPPort))
		return mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host: appCfg.MailSMTPHost,
			Port: appCfg.MailSMTPPort,
			User: appCfg.MailSMTPUser,
			Pass: appCfg.MailSMTPPass,
		}), nil
	}
}

// buildServices wires the components together. It does not start anything.
func buildServices(appCfg AppConfig, deps DBDeps, m *metrics.Metrics, gen generator.Generator, transport mailer.Transport, logger *zap.Logger) (*services, error) {
	planObjects, err := storage.NewLocal(storage.LocalConfig{BasePath: appCfg.MealPlansDir})
	if err != nil {
		return nil, fmt.Errorf("meal plan storage: %w", err)
	}
	s := &services{
		metrics:      m,
		restrictions: restrictionstore.New(planObjects),
		plans:        mealplanstore.New(planObjects),
	}

	if deps.MongoDatabase != nil {
		s.accounts = credentialstore.NewMongoStore(deps.MongoDatabase)
	} else {
		dataObjects, err := storage.NewLocal(storage.LocalConfig{
			BasePath:    appCfg.DataDir,
			Permissions: 0o600,
		})
		if err != nil {
			return nil, fmt.Errorf("credential storage: %w", err)
		}
		s.accounts = credentialstore.NewFileStore(dataObjects, credentialstore.DefaultFile)
	}

	from := appCfg.MailFrom
	if from == "" {
		from = "mealplanner@localhost"
	}
	ml, err := mailer.New(transport, from, appCfg.MailFromName, logger)
	if err != nil {
		return nil, err
	}
	s.notifier = mailer.NewNotifier(ml, appCfg.MailFromName, m, logger)

	authSetting, err := auditlog.ParseSetting(appCfg.AuditLogAuth)
	if err != nil {
		return nil, err
	}
	intakeSetting, err := auditlog.ParseSetting(appCfg.AuditLogIntake)
	if err != nil {
		return nil, err
	}
	s.audit = auditlog.New(logger, auditlog.Config{Auth: authSetting, Intake: intakeSetting})

	mode, err := planschema.ParseMode(appCfg.PlanValidation)
	if err != nil {
		return nil, err
	}

	s.workflow = &provisioning.Workflow{
		Accounts:       s.accounts,
		Restrictions:   s.restrictions,
		Plans:          s.plans,
		Generator:      gen,
		Notifier:       s.notifier,
		Validation:     mode,
		PasswordLength: appCfg.PasswordLength,
		Metrics:        m,
		Log:            logger,
	}

	if appCfg.RefreshEnabled {
		loc := time.Local
		if appCfg.RefreshTimezone != "" && appCfg.RefreshTimezone != "Local" {
			loc, err = time.LoadLocation(appCfg.RefreshTimezone)
			if err != nil {
				return nil, fmt.Errorf("refresh_timezone: %w", err)
			}
		}
		s.refresh, err = workers.NewMealPlanRefresh(workers.RefreshConfig{
			Families:  s.restrictions,
			Plans:     s.plans,
			Generator: s.workflow,
			Notifier:  s.notifier,
			Metrics:   m,
			Logger:    logger,
			Schedule:  appCfg.RefreshSchedule,
			Location:  loc,
		})
		if err != nil {
			return nil, err
		}
	}

	limit := appCfg.LoginRateLimit
	if limit < 1 {
		limit = 10
	}
	s.loginLimiter = ratelimit.NewLoginLimiter(limit)
	s.intakeLimiter = ratelimit.New(intakePerMinute, time.Minute)

	return s, nil
}

// close stops background work owned by s.
func (s *services) close(ctx context.Context) {
	if s == nil {
		return
	}
	if s.refresh != nil {
		s.refresh.Stop(ctx)
	}
	s.loginLimiter.Close()
	s.intakeLimiter.Close()
}

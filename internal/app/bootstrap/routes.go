// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	healthfeature "github.com/dalemusser/mealplanner/internal/app/features/health"
	homefeature "github.com/dalemusser/mealplanner/internal/app/features/home"
	intakefeature "github.com/dalemusser/mealplanner/internal/app/features/intake"
	loginfeature "github.com/dalemusser/mealplanner/internal/app/features/login"
	mealplansfeature "github.com/dalemusser/mealplanner/internal/app/features/mealplans"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so the shared services already exist.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	return newRouter(appCfg, deps, svc, logger), nil
}

// newRouter mounts every feature on a chi router.
func newRouter(appCfg AppConfig, deps DBDeps, s *services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	origins := appCfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	// Liveness and metrics
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, []string{appCfg.DataDir, appCfg.MealPlansDir}, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", s.metrics.Handler())

	// Intake form submissions
	intakeHandler := intakefeature.NewHandler(s.workflow, s.audit, logger)
	r.Mount("/webhook", s.intakeLimiter.Middleware(logger)(intakefeature.Routes(intakeHandler)))

	// Member sign-in and plan retrieval
	loginHandler := loginfeature.NewHandler(s.accounts, s.loginLimiter, s.audit, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	plansHandler := mealplansfeature.NewHandler(s.plans, logger)
	r.Mount("/get-meal-plan", mealplansfeature.Routes(plansHandler))

	return r
}

// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	catalogfeature "github.com/dalemusser/residenthub/internal/app/features/catalog"
	apierrors "github.com/dalemusser/residenthub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/residenthub/internal/app/features/health"
	obligationsfeature "github.com/dalemusser/residenthub/internal/app/features/obligations"
	progressfeature "github.com/dalemusser/residenthub/internal/app/features/progress"
	"github.com/dalemusser/residenthub/internal/app/ledger"
	"github.com/dalemusser/residenthub/internal/app/obligations"
	catalogstore "github.com/dalemusser/residenthub/internal/app/store/catalog"
	procedurelogstore "github.com/dalemusser/residenthub/internal/app/store/procedurelogs"
	"github.com/dalemusser/residenthub/internal/app/store/queries/compliancesnapshot"
	"github.com/dalemusser/residenthub/internal/app/system/auth"
	"github.com/dalemusser/residenthub/internal/app/system/metrics"
	"github.com/dalemusser/residenthub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It assembles the stores and services
// and mounts the JSON API:
//
//	/health       Mongo ping
//	/metrics      Prometheus exposition
//	/progress     procedure logging, progress reports, validation
//	/obligations  compliance obligations for the caller's scope
//	/catalog      paged rotation and resident listings
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	sessionMgr, err := newSessionManager(coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	catalog := catalogstore.New(deps.MongoDatabase)
	ledgerSvc := ledger.New(catalog, procedurelogstore.New(deps.MongoDatabase), m, logger)

	reader := txn.NewReader(deps.MongoClient, appCfg.SnapshotReads != "off", logger)
	obligationSvc := obligations.New(compliancesnapshot.New(deps.MongoDatabase, reader), m, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otelhttp.NewMiddleware("residenthub"))

	// Loads SessionUser into context when a session cookie is present.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(apierrors.NotFound)
	r.MethodNotAllowed(apierrors.MethodNotAllowed)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	progressHandler := progressfeature.NewHandler(ledgerSvc, logger)
	r.Mount("/progress", progressfeature.Routes(progressHandler, sessionMgr))

	obligationsHandler := obligationsfeature.NewHandler(obligationSvc, logger)
	r.Mount("/obligations", obligationsfeature.Routes(obligationsHandler, sessionMgr))

	catalogHandler := catalogfeature.NewHandler(catalog, logger)
	r.Mount("/catalog", catalogfeature.Routes(catalogHandler, sessionMgr))

	return r, nil
}

// newSessionManager builds the cookie store. Outside prod an unset key is
// replaced by a random one, so sessions do not survive a restart.
func newSessionManager(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (*auth.SessionManager, error) {
	key := appCfg.SessionKey
	if key == "" && !isProd(coreCfg) {
		raw := securecookie.GenerateRandomKey(32)
		if raw == nil {
			return nil, fmt.Errorf("generate session key")
		}
		key = fmt.Sprintf("%x", raw)
		logger.Warn("session_key not set; using an ephemeral key")
	}
	return auth.NewSessionManager(key, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, isProd(coreCfg), logger)
}

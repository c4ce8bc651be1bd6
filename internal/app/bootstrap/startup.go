// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/residenthub/internal/app/system/timeouts"
	"github.com/dalemusser/residenthub/internal/app/system/tracing"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

var (
	traceMu       sync.Mutex
	traceShutdown = func(context.Context) error { return nil }
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It applies configured timeouts and installs the tracer provider so the
// services built in BuildHandler pick up the real tracer.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	env := ""
	if coreCfg != nil {
		env = coreCfg.Env
	}
	shutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName: "residenthub",
		Environment: env,
		Endpoint:    appCfg.OtelEndpoint,
		Insecure:    appCfg.OtelInsecure,
		SampleRatio: appCfg.OtelSampleRatio,
	}, logger)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
		return err
	}

	traceMu.Lock()
	traceShutdown = shutdown
	traceMu.Unlock()
	return nil
}

func flushTracing(ctx context.Context) error {
	traceMu.Lock()
	fn := traceShutdown
	traceMu.Unlock()
	return fn(ctx)
}

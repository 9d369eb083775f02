package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenegraph/internal/app"
	"github.com/zeusync/scenegraph/internal/config"
	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/scene"
	"github.com/zeusync/scenegraph/internal/inspector"
)

// ConfigPath is the config file to load. Empty means built-in defaults.
type ConfigPath string

// Application is what the binary runs.
type Application struct {
	Runtime *app.Runtime
	Logger  *log.Logger
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideBus,
	ProvideScene,
	ProvideInspector,
	app.New,
	wire.Struct(new(Application), "*"),
)

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(string(path))
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.NewWithFormat(cfg.Level(), cfg.Log.Format)
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideScene(cfg *config.Config, logger log.Log, b bus.EventBus) *scene.Scene {
	return scene.New(
		scene.WithName(cfg.Scene.Name),
		scene.WithLogger(logger),
		scene.WithBus(b),
		scene.WithMaxDrainPasses(cfg.Scene.MaxDrainPasses),
		scene.WithNodeCapacity(cfg.Scene.InitialCapacity),
	)
}

// ProvideInspector returns nil when the inspector is disabled.
func ProvideInspector(cfg *config.Config, logger log.Log) *inspector.Server {
	if !cfg.Inspector.Enabled {
		return nil
	}
	return inspector.New(logger.With(log.String("component", "inspector")), cfg.Inspector.Address, cfg.Inspector.Interval)
}

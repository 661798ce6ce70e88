package app

import (
	"errors"
	"fmt"

	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/provider"
	"github.com/employer-pool/internal/router"
	"github.com/employer-pool/internal/worker"
)

// BuildRunner 按运行模式装配 HTTP、队列消费与滞留意图清扫服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !validMode(mode) {
		return nil, fmt.Errorf("unknown run mode %q", mode)
	}
	return buildRunner(cfg, mode, provider.NewContainer(cfg))
}

func buildRunner(cfg *config.Config, mode string, container *provider.Container) (*Runner, error) {
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		// 队列未启用时仅跑本地清扫循环，状态核对任务不会被投递
		if cfg.Queue.Enabled {
			queueService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, queueService)
		}
		sweepLoop, err := worker.NewSweepLoop(consumer, cfg.Reconcile.SweepInterval())
		if err != nil {
			return nil, err
		}
		services = append(services, sweepLoop)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}

package runner

import (
	"context"

	"turbo_bot/pkg/logger"

	"go.uber.org/fx"
)

// start цикл в отдельной горутине; конец прогона гасит приложение,
// неудачное подключение с кодом 1.
func start(lc fx.Lifecycle, sd fx.Shutdowner, r *Runner) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)

				sum, err := r.Run(runCtx)
				if runCtx.Err() != nil {
					return
				}
				code := 0
				if err != nil {
					logger.Error("[RUNNER] fatal: %v", err)
					code = 1
				} else {
					logger.Info("[RUNNER] run %s finished: %s", sum.RunID, sum)
				}
				if err := sd.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error("[RUNNER] shutdown: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("[RUNNER] stop timed out, cycle still running")
			}
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewFromConfig, // *Runner
		),
		fx.Invoke(start),
	)
}

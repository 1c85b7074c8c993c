package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/locvowork/tasktracker/internal/bootstrap"
	"github.com/locvowork/tasktracker/internal/config"
	"github.com/locvowork/tasktracker/internal/logger"
)

func main() {
	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, fmt.Sprintf("Failed to initialize application: %v", err))
		if cerr := app.Close(); cerr != nil {
			logger.ErrorLog(ctx, fmt.Sprintf("Failed to close application: %v", cerr))
		}
		os.Exit(1)
	}

	go func() {
		if err := app.Run(); err != nil {
			logger.ErrorLog(ctx, fmt.Sprintf("Application failed: %v", err))
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		config.DefaultEnvConfig.SHUTDOWN_TIMEOUT,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.InfoLog(ctx, "Graceful shutdown initiated")
				return errors.Join(app.Shutdown(ctx), app.Close())
			},
		},
	)

	exitCode := <-wait
	logger.InfoLog(ctx, fmt.Sprintf("Application exited with code %d", exitCode))
	os.Exit(exitCode)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorod-sporta/internal/infrastructure/app"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Init(ctx)
	if err != nil {
		fmt.Printf("app init error: %v\n", err)
		return
	}
	defer application.Close()
	log := application.Log

	if application.Config.SmokeTest {
		runRepoSmokeTest(ctx, log, application.Pool)
	}

	go func() {
		log.Info("grpc health server started", zap.String("addr", application.Health.Addr()))
		if err := application.Health.Serve(); err != nil {
			log.Error("grpc health server stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Info("http server started", zap.String("addr", application.Config.HTTP.Addr))
		if err := application.HTTP.Listen(application.Config.HTTP.Addr); err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	go application.RunBot(ctx)
	application.Scheduler.Start()

	log.Info("server is starting", zap.String("env", application.Config.Logger.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	s := <-quit
	log.Info("shutting down server", zap.String("signal", s.String()))

	cancel()
	if err := application.HTTP.ShutdownWithTimeout(application.Config.HTTP.ShutdownGrace); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

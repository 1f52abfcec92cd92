package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"listTracker/internal/app"
	"listTracker/internal/config"
	"listTracker/internal/logger"
)

func main() {
	path := os.Getenv("LISTS_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "конфигурация: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "запуск: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("Сервер остановлен с ошибкой", err)
		return
	}
	logger.Info("Сервер остановлен")
}

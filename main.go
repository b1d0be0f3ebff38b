package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"goimpute/internal/config"
	"goimpute/internal/container"
	"goimpute/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := c.Experiment.Run(ctx)
	if err != nil {
		c.Logger.Error("Experiment aborted [%s]: %v", errors.GetCode(err), err)
		return
	}
	c.Logger.Info("Wrote images for %d configurations to %s (%s)", len(report.Outcomes), appConfig.Output.Dir, report.Status())
}

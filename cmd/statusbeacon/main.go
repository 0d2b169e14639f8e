package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/app"
	"github.com/statusbeacon/engine/internal/config"
	"github.com/statusbeacon/engine/internal/version"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "config.yaml", "Path to configuration file")
}

func main() {
	flag.Parse()

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Printf("statusbeacon-engine\n")
		fmt.Printf("Version:    %s\n", version.Version)
		fmt.Printf("Build Time: %s\n", version.BuildTime)
		fmt.Printf("Commit ID:  %s\n", version.CommitID)
		os.Exit(0)
	}

	logrus.WithFields(logrus.Fields{
		"version":    version.Version,
		"build_time": version.BuildTime,
		"commit_id":  version.CommitID,
	}).Info("Starting uptime monitoring engine")

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ValidateOrExit()

	application, err := app.NewApplication(cfg, configFile)
	if err != nil {
		logrus.Fatalf("Failed to create application: %v", err)
	}

	ctx := context.Background()
	if err := application.Initialize(ctx); err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

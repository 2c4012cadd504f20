package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fieldsurvey/pkg/api"
	"fieldsurvey/pkg/auth"
	"fieldsurvey/pkg/config"
	"fieldsurvey/pkg/flow"
	"fieldsurvey/pkg/flow/prompts"
	"fieldsurvey/pkg/logging"
	"fieldsurvey/pkg/storage/keyringstore"
	"fieldsurvey/pkg/survey"
	"fieldsurvey/pkg/term"
)

func main() {
	prompts.RegisterBuiltins()

	_ = godotenv.Load()

	cfgPath := "fieldsurvey.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	if err := config.LoadConfig(cfgPath); err != nil {
		logging.Logger.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.GetConfig()
	logging.SetLevel(cfg.LogLevel)
	log := logging.Component("main")

	gateway, err := api.NewClient(cfg.API.URL, cfg.Timeout())
	if err != nil {
		log.Fatalf("Failed to initialize API client: %v", err)
	}

	store, err := keyringstore.New(cfg.Keyring.Service)
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}

	authCtrl := auth.NewController(gateway, store, logging.Component("auth"))
	surveyCtrl := survey.NewController(gateway, logging.Component("survey"))
	terminal := term.New(os.Stdin, os.Stdout)
	runner := flow.NewRunner(authCtrl, surveyCtrl, terminal, logging.Component("flow"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received...")
		cancel()
	}()

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			log.Info("Session ended.")
			return
		}
		log.Fatalf("Session aborted: %v", err)
	}
}

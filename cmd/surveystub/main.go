package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"fieldsurvey/pkg/logging"
	"fieldsurvey/pkg/stubserver"
)

// surveystub serves a local stand-in for the remote survey API so the client
// can be exercised end to end without the real backend.
func main() {
	_ = godotenv.Load()
	logging.SetLevel(os.Getenv("LOG_LEVEL"))
	log := logging.Component("surveystub")

	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = ":8900"
	}

	server := stubserver.New(stubserver.SampleDataset(), log)

	log.WithField("addr", addr).Info("stub survey API listening")
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.WithError(err).Fatal("stub server stopped")
	}
}

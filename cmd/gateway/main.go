// Command gateway serves the HTTP facade over the memory store and RAG
// microservices.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labinsight/dbops/config"
	"github.com/labinsight/dbops/gateway"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// EnvGatewayAddr the listen address
	EnvGatewayAddr = "GATEWAY_ADDR"
	// EnvMemoryServiceURL base URL of the memory microservice
	EnvMemoryServiceURL = "MEMORY_SERVICE_URL"
	// EnvRAGServiceURL base URL of the RAG microservice
	EnvRAGServiceURL = "RAG_SERVICE_URL"
)

func main() {
	os.Exit(run())
}

func run() int {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Logger()

	cfg := config.LoadFromENV()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("environment validation failed")
		return 1
	}

	addr := envOr(EnvGatewayAddr, ":8000")
	memoryURL := envOr(EnvMemoryServiceURL, "http://localhost:8002")
	ragURL := envOr(EnvRAGServiceURL, "http://localhost:8001")

	server := gateway.NewServer(gateway.NewClient(memoryURL, ragURL))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("gateway listening on %s (memory: %s, rag: %s)",
			addr, memoryURL, ragURL)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		log.Error().Err(err).Msg("gateway stopped")
		return 1
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		return 1
	}

	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/Chichichkin/SeqRelay/internal/agent"
	"github.com/Chichichkin/SeqRelay/pkg/logging"
	"github.com/Chichichkin/SeqRelay/pkg/seqlog"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := agent.LoadConfig(os.Getenv("SEQRELAY_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(config)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	service := agent.NewService(ctx, *config, logger)
	if err := service.Start(); err != nil {
		log.Fatalf("Failed to start agent: %v", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	service.Stop()
	logger.Flush()
	logger.Close()
}

func buildLogger(config *agent.Config) (*seqlog.Logger, error) {
	store := logging.NewPropertyStore()
	store.Merge(logging.Properties{
		"SessionId": uuid.NewString(),
		"NodeName":  config.NodeName,
	})

	return seqlog.New(seqlog.Config{
		ServerURL:        config.ServerURL,
		APIKey:           config.APIKey,
		BatchSize:        config.BatchSize,
		AutoFlushTimeout: config.AutoFlushTimeout.Std(),
		MinLevel:         logging.ParseLevel(config.MinLevel),
		LoggerName:       "seqrelay.agent",
		GlobalProperties: store,
	})
}

package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/bank-sync/internal/aggregator"
	"github.com/dvloznov/bank-sync/internal/blobstore"
	"github.com/dvloznov/bank-sync/internal/config"
	"github.com/dvloznov/bank-sync/internal/credentials"
	"github.com/dvloznov/bank-sync/internal/logger"
	"github.com/dvloznov/bank-sync/internal/partition"
	"github.com/dvloznov/bank-sync/internal/session"
	"github.com/dvloznov/bank-sync/internal/sync"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	// No timeout: the consent exchange may block on operator input for an
	// arbitrary time, and transport defaults bound everything else.
	ctx := logger.WithContext(context.Background(), log)

	creds, err := credentials.NewProvider(cfg.ApplicationID, cfg.PrivateKeyBase64)
	if err != nil {
		log.Fatal().Err(err).Msg("Credential error")
	}

	store, err := blobstore.NewGCSStore(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage error")
	}
	defer store.Close()

	client := aggregator.NewClient(cfg.APIOrigin, creds)

	var input session.InputProvider
	if cfg.Interactive {
		input = session.NewConsoleInput()
	}
	sessions := session.NewManager(client, store, input, cfg.Interactive)

	runner := sync.NewRunner(store, sessions, client, partition.NewWriter(store), cfg.Institutions)

	log.Info().
		Int("institutions", len(cfg.Institutions)).
		Bool("interactive", cfg.Interactive).
		Msg("Starting transaction sync")

	if err := runner.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}

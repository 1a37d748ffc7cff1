package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/safedrop/internal/corestore"
	"github.com/dmitrijs2005/safedrop/internal/corestore/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := corestore.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

package main

import (
	"context"
	"log"
	"os"

	"producermap/internal/config"
	"producermap/internal/db"
	listingrepo "producermap/internal/repository/listing"
	productrepo "producermap/internal/repository/product"
	"producermap/internal/seed"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	res, err := seed.Apply(ctx, listingrepo.NewPostgres(pool, logger), productrepo.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied listings=%d products=%d", res.Listings, res.Products)
}

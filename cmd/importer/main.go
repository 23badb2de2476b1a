package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"producermap/internal/config"
	"producermap/internal/db"
	"producermap/internal/importer"
	listingrepo "producermap/internal/repository/listing"
	productrepo "producermap/internal/repository/product"
)

func main() {
	var (
		filePath     string
		skipProducts bool
	)
	flag.StringVar(&filePath, "file", "", "Path to producer listings CSV")
	flag.BoolVar(&skipProducts, "skip-products", false, "Ignore product.* columns")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	var products importer.ProductWriter
	if !skipProducts {
		products = productrepo.NewPostgres(pool, logger)
	}
	imp := importer.NewCSVImporter(f, listingrepo.NewPostgres(pool, logger), products)

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d listings and %d products in %s\n", res.Listings, res.Products, time.Since(start).Truncate(time.Millisecond))
}

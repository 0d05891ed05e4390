package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/config"
	"stakdcards.com/app/internal/database"
	"stakdcards.com/app/internal/modules/catalog"
)

type seedProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
	Active   *bool           `json:"active"`
}

func main() {
	file := flag.String("file", "catalog.json", "JSON array of {id, name, price, image_url, active}")
	dryRun := flag.Bool("dry-run", false, "Validate the file without writing")
	flag.Parse()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var items []seedProduct
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}

	products := make([]catalog.Product, 0, len(items))
	seen := map[string]bool{}
	now := time.Now().UTC()
	for i, it := range items {
		id := strings.TrimSpace(it.ID)
		switch {
		case id == "":
			log.Fatalf("item %d: id is required", i)
		case seen[id]:
			log.Fatalf("item %d: duplicate id %q", i, id)
		case strings.TrimSpace(it.Name) == "":
			log.Fatalf("item %d (%s): name is required", i, id)
		case !it.Price.IsPositive():
			log.Fatalf("item %d (%s): price must be positive", i, id)
		}
		seen[id] = true
		active := true
		if it.Active != nil {
			active = *it.Active
		}
		products = append(products, catalog.Product{
			ID:        id,
			Name:      strings.TrimSpace(it.Name),
			Price:     it.Price.Round(2),
			ImageURL:  strings.TrimSpace(it.ImageURL),
			Active:    active,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if *dryRun {
		fmt.Printf("[DRY RUN] %d products valid\n", len(products))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.DB, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := catalog.NewRepo(db)
	ctx := context.Background()
	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			log.Fatalf("upsert %s: %v", p.ID, err)
		}
	}
	fmt.Printf("✓ %d products upserted\n", len(products))
}

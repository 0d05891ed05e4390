package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"stakdcards.com/app/internal/config"
	"stakdcards.com/app/internal/database"
	"stakdcards.com/app/internal/modules/accounts"
	"stakdcards.com/app/internal/modules/catalog"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
	"stakdcards.com/app/internal/modules/payments"
	"stakdcards.com/app/internal/modules/shipping"
)

func main() {
	normalize := flag.Bool("normalize-status", false, "rewrite legacy order status values to the canonical set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.Open(cfg.DB, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	models := []any{
		&catalog.Product{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.OrderEvent{},
		&checkout.Snapshot{},
		&payments.ProviderEvent{},
		&email.EmailLog{},
		&email.OutboxMessage{},
		&email.AbandonedCartReminder{},
		&email.NewsletterSubscriber{},
		&accounts.Profile{},
		&shipping.Shipment{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Failed: %v", err)
	}
	fmt.Printf("✓ %d tables migrated (%s)\n", len(models), cfg.DB.Driver)

	if *normalize {
		n, err := normalizeStatuses(db)
		if err != nil {
			log.Fatalf("Failed: %v", err)
		}
		fmt.Printf("✓ %d orders moved to canonical statuses\n", n)
	}
}

// normalizeStatuses rewrites stored values that only the read path knew how
// to interpret.
func normalizeStatuses(db *gorm.DB) (int64, error) {
	var total int64
	for _, status := range orders.Statuses() {
		legacy := orders.RawValues(status)[1:]
		if len(legacy) == 0 {
			continue
		}
		res := db.Model(&orders.Order{}).Where("status IN ?", legacy).Update("status", status)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

// cmd/seedcatalog loads a demo menu into the local products table.
// Usage: go run ./cmd/seedcatalog
package main

import (
	"context"

	"foodie/internal/config"
	"foodie/internal/infra"
	"foodie/internal/model"
	"foodie/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var menu = []struct {
	id    string
	name  string
	price string
}{
	{"6a1f0c52-3b1e-4c1a-9d59-1f1f2a6b0a01", "Burger", "7.99"},
	{"6a1f0c52-3b1e-4c1a-9d59-1f1f2a6b0a02", "Pizza", "8.50"},
	{"6a1f0c52-3b1e-4c1a-9d59-1f1f2a6b0a03", "Caesar Salad", "6.25"},
	{"6a1f0c52-3b1e-4c1a-9d59-1f1f2a6b0a04", "Fries", "2.95"},
	{"6a1f0c52-3b1e-4c1a-9d59-1f1f2a6b0a05", "Lemonade", "2.50"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	repo := repository.NewProductRepository(db)
	for _, m := range menu {
		p := &model.Product{
			ID:        uuid.MustParse(m.id),
			Name:      m.name,
			Price:     decimal.RequireFromString(m.price),
			Available: true,
		}
		if err := repo.Upsert(context.Background(), p); err != nil {
			log.Fatal().Err(err).Str("product", m.name).Msg("upsert failed")
		}
		log.Info().Str("id", m.id).Str("name", m.name).Str("price", m.price).Msg("product seeded")
	}
}

// Package seed загружает справочники партнёров и товаров из YAML-файла.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// File: корневая структура seed-файла.
type File struct {
	Partners []PartnerEntry `yaml:"partners"`
	Products []ProductEntry `yaml:"products"`
}

// PartnerEntry описывает партнёра в seed-файле.
type PartnerEntry struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	IsDeleted bool   `yaml:"isDeleted"`
}

// ProductEntry описывает товар. Цены задаются строкой или числом.
type ProductEntry struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	BuyPrice  *string `yaml:"buyPrice"`
	SellPrice *string `yaml:"sellPrice"`
	Image     *string `yaml:"image"`
	Unit      *string `yaml:"unit"`
	IsDeleted bool    `yaml:"isDeleted"`
}

// Catalog: разобранный и проверенный справочник.
type Catalog struct {
	Partners []domain.Partner
	Products []domain.Product
}

// LoadFile читает и разбирает seed-файл.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML и проверяет идентификаторы и цены.
func Parse(data []byte) (Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse seed yaml: %w", err)
	}

	var catalog Catalog
	seen := make(map[string]struct{})
	for i, entry := range file.Partners {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return Catalog{}, fmt.Errorf("partners[%d]: id is required", i)
		}
		if _, dup := seen["partner:"+id]; dup {
			return Catalog{}, fmt.Errorf("partners[%d]: duplicate id %q", i, id)
		}
		seen["partner:"+id] = struct{}{}
		catalog.Partners = append(catalog.Partners, domain.Partner{
			ID:        id,
			Name:      entry.Name,
			IsDeleted: entry.IsDeleted,
		})
	}

	for i, entry := range file.Products {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return Catalog{}, fmt.Errorf("products[%d]: id is required", i)
		}
		if _, dup := seen["product:"+id]; dup {
			return Catalog{}, fmt.Errorf("products[%d]: duplicate id %q", i, id)
		}
		seen["product:"+id] = struct{}{}

		buy, err := parsePrice(entry.BuyPrice)
		if err != nil {
			return Catalog{}, fmt.Errorf("products[%d].buyPrice: %w", i, err)
		}
		sell, err := parsePrice(entry.SellPrice)
		if err != nil {
			return Catalog{}, fmt.Errorf("products[%d].sellPrice: %w", i, err)
		}
		catalog.Products = append(catalog.Products, domain.Product{
			ID:        id,
			Name:      entry.Name,
			BuyPrice:  buy,
			SellPrice: sell,
			Image:     entry.Image,
			Unit:      entry.Unit,
			IsDeleted: entry.IsDeleted,
		})
	}

	return catalog, nil
}

// Apply записывает справочник в хранилище.
func Apply(ctx context.Context, writer domain.CatalogWriter, catalog Catalog, logger *log.Entry) error {
	if logger == nil {
		logger = log.WithField("component", "seed")
	}

	for _, partner := range catalog.Partners {
		if err := writer.UpsertPartner(ctx, partner); err != nil {
			return err
		}
	}
	for _, product := range catalog.Products {
		if err := writer.UpsertProduct(ctx, product); err != nil {
			return err
		}
	}

	logger.WithFields(log.Fields{
		"partners": len(catalog.Partners),
		"products": len(catalog.Products),
	}).Info("catalog seeded")
	return nil
}

func parsePrice(raw *string) (decimal.NullDecimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q: %w", *raw, err)
	}
	if value.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("price must be non-negative, got %s", value)
	}
	return decimal.NewNullDecimal(value), nil
}

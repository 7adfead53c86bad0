package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

const sampleSeed = `
partners:
  - id: partner-1
    name: Toko Maju
  - id: partner-old
    name: Toko Lama
    isDeleted: true
products:
  - id: product-1
    name: Kopi
    buyPrice: 10
    sellPrice: "20.50"
    unit: kg
  - id: product-2
    name: Teh
`

func TestParse(t *testing.T) {
	catalog, err := Parse([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, catalog.Partners, 2)
	require.True(t, catalog.Partners[1].IsDeleted)
	require.Len(t, catalog.Products, 2)

	kopi := catalog.Products[0]
	require.True(t, kopi.BuyPrice.Valid)
	require.True(t, kopi.BuyPrice.Decimal.Equal(decimal.NewFromInt(10)))
	require.True(t, kopi.SellPrice.Decimal.Equal(decimal.RequireFromString("20.5")))
	require.Equal(t, "kg", kopi.UnitOrDefault())

	teh := catalog.Products[1]
	require.False(t, teh.BuyPrice.Valid)
	require.Equal(t, "pcs", teh.UnitOrDefault())
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{name: "missing partner id", yaml: "partners:\n  - name: x\n"},
		{name: "duplicate product", yaml: "products:\n  - id: a\n  - id: a\n"},
		{name: "bad price", yaml: "products:\n  - id: a\n    buyPrice: abc\n"},
		{name: "negative price", yaml: "products:\n  - id: a\n    sellPrice: -1\n"},
		{name: "broken yaml", yaml: "partners: [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadFileAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o600))

	catalog, err := LoadFile(path)
	require.NoError(t, err)

	repo := memory.NewCatalogRepository()
	ctx := context.Background()
	require.NoError(t, Apply(ctx, repo, catalog, nil))

	partner, err := repo.FindPartner(ctx, "partner-1")
	require.NoError(t, err)
	require.NotNil(t, partner)
	require.Equal(t, "Toko Maju", partner.Name)

	products, err := repo.FindProducts(ctx, []string{"product-1", "product-2"})
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

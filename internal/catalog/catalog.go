package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"order-agent/internal/models"
)

//go:embed products.json
var defaultCatalog []byte

// Load reads the product catalog from path, or the embedded catalog when
// path is empty
func Load(path string) ([]models.Product, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		data = raw
	}

	return Parse(data)
}

// Parse decodes and validates a JSON product list
func Parse(data []byte) ([]models.Product, error) {
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog entry without id or name: %+v", p)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id: %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	return products, nil
}

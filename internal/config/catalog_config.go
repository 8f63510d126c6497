package config

import (
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gopkg.in/yaml.v3"
)

type CatalogProduct struct {
	Name     string `yaml:"name"`
	Price    string `yaml:"price"`
	Image    string `yaml:"image"`
	Category string `yaml:"category"`
}

type CatalogConfig struct {
	Products []CatalogProduct `yaml:"products"`
}

// LoadCatalog 從 yaml 讀取商品清單
func LoadCatalog(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cf := &CatalogConfig{}
	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	products := make([]model.Product, 0, len(cf.Products))
	seen := make(map[string]struct{}, len(cf.Products))
	for i, p := range cf.Products {
		if p.Name == "" {
			return nil, fmt.Errorf("catalog product #%d: name is required", i+1)
		}
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("catalog product %q: duplicated name", p.Name)
		}
		seen[p.Name] = struct{}{}

		price, err := parseDecimal("price of "+p.Name, p.Price)
		if err != nil {
			return nil, err
		}
		products = append(products, model.Product{
			Name:     p.Name,
			Price:    price,
			Image:    p.Image,
			Category: p.Category,
		})
	}
	return products, nil
}

package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	appcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/application/catalog"
	domcatalog "github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"

	"gopkg.in/yaml.v3"
)

// Catalog is the YAML shape of a catalog seed file:
//
//	categories: [Electronics, Books]
//	products:
//	  - name: Smartphone
//	    price: 15000
//	    description: Latest model smartphone
//	    image: https://example.com/phone.jpg
//	    category: Electronics
//	    stock: 10
type Catalog struct {
	Categories []string  `yaml:"categories"`
	Products   []Product `yaml:"products"`
}

type Product struct {
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Category    string `yaml:"category"`
	// Stock defaults to the catalog default when omitted.
	Stock *int `yaml:"stock"`
}

func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("seed: parse: %w", err)
	}
	return c, nil
}

// Default is the sample storefront loaded when no seed file is configured.
func Default() Catalog {
	stock := func(n int) *int { return &n }
	return Catalog{
		Categories: []string{"Electronics", "Clothing", "Books", "Home & Garden"},
		Products: []Product{
			{
				Name:        "Smartphone",
				Price:       15000,
				Description: "Latest model smartphone with great features",
				Image:       "https://via.placeholder.com/300x300?text=Smartphone",
				Category:    "Electronics",
				Stock:       stock(10),
			},
			{
				Name:        "T-Shirt",
				Price:       500,
				Description: "Comfortable cotton t-shirt",
				Image:       "https://via.placeholder.com/300x300?text=T-Shirt",
				Category:    "Clothing",
				Stock:       stock(25),
			},
			{
				Name:        "Novel Book",
				Price:       300,
				Description: "Interesting novel for reading",
				Image:       "https://via.placeholder.com/300x300?text=Book",
				Category:    "Books",
				Stock:       stock(15),
			},
		},
	}
}

type Summary struct {
	Categories int
	Products   int
}

// Apply loads c through the catalog service so seeded data passes the same
// validation as admin input. Categories that already exist are not an error.
func Apply(ctx context.Context, svc *appcatalog.Service, c Catalog) (Summary, error) {
	var sum Summary
	for _, name := range c.Categories {
		err := svc.AddCategory(ctx, name)
		switch {
		case err == nil:
			sum.Categories++
		case errors.Is(err, domcatalog.ErrDuplicateCategory):
		default:
			return sum, fmt.Errorf("seed: category %q: %w", name, err)
		}
	}

	for _, p := range c.Products {
		stored, err := svc.AddProduct(ctx, appcatalog.AddProductInput{
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			Image:       p.Image,
			Category:    p.Category,
		})
		if err != nil {
			return sum, fmt.Errorf("seed: product %q: %w", p.Name, err)
		}
		if p.Stock != nil && *p.Stock != stored.Stock {
			if _, err := svc.UpdateStock(ctx, stored.ID, *p.Stock); err != nil {
				return sum, fmt.Errorf("seed: stock for %q: %w", p.Name, err)
			}
		}
		sum.Products++
	}
	return sum, nil
}

// Package catalogfile loads a menu from YAML.
//
//	items:
//	  - id: 1
//	    name: Jollof Rice with Chicken
//	    price: 2500
//	    category: main
package catalogfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

type file struct {
	Items []domain.MenuItem `yaml:"items"`
}

func Load(path string) (*domain.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*domain.Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return domain.NewCatalog(f.Items)
}

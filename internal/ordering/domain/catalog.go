package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Control command numbers. Catalog ids may not use them.
const (
	CmdCancel   = 0
	CmdMenu     = 1
	CmdPay      = 2
	CmdCurrent  = 97
	CmdHistory  = 98
	CmdCheckout = 99
)

var reservedIDs = map[int]struct{}{
	CmdCancel:   {},
	CmdCurrent:  {},
	CmdHistory:  {},
	CmdCheckout: {},
}

type MenuItem struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	UnitPrice int64  `json:"price" yaml:"price"`
	Category  string `json:"category,omitempty" yaml:"category"`
}

// Catalog is an ordered, read-only list of menu items.
type Catalog struct {
	items []MenuItem
	byID  map[int]int
}

func NewCatalog(items []MenuItem) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidCatalog)
	}
	c := &Catalog{
		items: make([]MenuItem, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for _, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("%w: item %q has non-positive id %d", ErrInvalidCatalog, item.Name, item.ID)
		}
		if _, ok := reservedIDs[item.ID]; ok {
			return nil, fmt.Errorf("%w: id %d is a control command", ErrInvalidCatalog, item.ID)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, item.ID)
		}
		if item.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidCatalog, item.ID)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %d has negative price", ErrInvalidCatalog, item.ID)
		}
		c.byID[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

// DefaultCatalog returns the house menu.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]MenuItem{
		{ID: 1, Name: "Jollof Rice with Chicken", UnitPrice: 2500, Category: "main"},
		{ID: 2, Name: "Fried Rice with Beef", UnitPrice: 2800, Category: "main"},
		{ID: 3, Name: "Pounded Yam with Egusi Soup", UnitPrice: 3200, Category: "main"},
		{ID: 4, Name: "Spaghetti Bolognese", UnitPrice: 2000, Category: "main"},
		{ID: 5, Name: "Chicken Shawarma", UnitPrice: 1800, Category: "fast-food"},
		{ID: 6, Name: "Beef Burger", UnitPrice: 2200, Category: "fast-food"},
		{ID: 7, Name: "Caesar Salad", UnitPrice: 1500, Category: "salad"},
		{ID: 8, Name: "Chapman Drink", UnitPrice: 800, Category: "drinks"},
		{ID: 9, Name: "Coca Cola", UnitPrice: 500, Category: "drinks"},
		{ID: 10, Name: "Water", UnitPrice: 300, Category: "drinks"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Items returns a copy of the catalog in display order.
func (c *Catalog) Items() []MenuItem {
	out := make([]MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Lookup(id int) (MenuItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return MenuItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Len() int {
	return len(c.items)
}

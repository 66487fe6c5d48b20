package domain

import (
	"slices"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPlaced    OrderStatus = "placed"
	StatusPaid      OrderStatus = "paid"
	StatusScheduled OrderStatus = "scheduled"
)

// OrderLine is a snapshot of a menu item taken when it was added to an order.
type OrderLine struct {
	ItemID    int    `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Category  string `json:"category,omitempty"`
}

func NewOrderLine(item MenuItem) OrderLine {
	return OrderLine{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Category:  item.Category,
	}
}

type Order struct {
	ID           string      `json:"id"`
	Items        []OrderLine `json:"items"`
	Total        int64       `json:"total"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	ScheduledFor *time.Time  `json:"scheduledFor,omitempty"`
	PaidAt       *time.Time  `json:"paidAt,omitempty"`
}

func NewOrder(id string, now time.Time) Order {
	return Order{
		ID:        id,
		Items:     []OrderLine{},
		Status:    StatusPending,
		CreatedAt: now.UTC(),
	}
}

func (o Order) IsEmpty() bool {
	return len(o.Items) == 0
}

// Clone returns a copy that shares no memory with o.
func (o Order) Clone() Order {
	c := o
	c.Items = slices.Clone(o.Items)
	if c.Items == nil {
		c.Items = []OrderLine{}
	}
	if o.ScheduledFor != nil {
		t := *o.ScheduledFor
		c.ScheduledFor = &t
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return c
}

// WithItem returns a copy of o with item appended.
func (o Order) WithItem(item MenuItem) Order {
	c := o.Clone()
	c.Items = append(c.Items, NewOrderLine(item))
	c.Total = sumLines(c.Items)
	return c
}

// Place returns the finalized copy of o that goes into the order history.
func (o Order) Place(at time.Time) Order {
	c := o.Clone()
	c.Status = StatusPlaced
	c.CreatedAt = at.UTC()
	c.Total = sumLines(c.Items)
	return c
}

// MarkPaid records a payment. It reports false if a payment was already recorded.
// A scheduled order keeps its status.
func (o Order) MarkPaid(at time.Time) (Order, bool) {
	if o.PaidAt != nil {
		return o, false
	}
	c := o.Clone()
	t := at.UTC()
	c.PaidAt = &t
	if c.Status == StatusPlaced {
		c.Status = StatusPaid
	}
	return c, true
}

func (o Order) Schedule(at time.Time) Order {
	c := o.Clone()
	t := at.UTC()
	c.ScheduledFor = &t
	c.Status = StatusScheduled
	return c
}

func sumLines(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPrice
	}
	return total
}

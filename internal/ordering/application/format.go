package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

const (
	DefaultCurrency = "₦"
	dateLayout      = "Jan 2, 2006 3:04 PM"
)

// Formatter renders catalog and order data as chat text.
type Formatter struct {
	Currency string
	Location *time.Location
}

func NewFormatter(currency string, loc *time.Location) Formatter {
	if currency == "" {
		currency = DefaultCurrency
	}
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{Currency: currency, Location: loc}
}

func (f Formatter) Price(amount int64) string {
	return fmt.Sprintf("%s%d", f.Currency, amount)
}

func (f Formatter) Date(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

func (f Formatter) Menu(c *domain.Catalog) string {
	var b strings.Builder
	b.WriteString("Our Menu:\n")
	for _, item := range c.Items() {
		fmt.Fprintf(&b, "%d. %s - %s\n", item.ID, item.Name, f.Price(item.UnitPrice))
	}
	return b.String()
}

func (f Formatter) CurrentOrder(o domain.Order) string {
	if o.IsEmpty() {
		return "Your current order is empty."
	}
	var b strings.Builder
	b.WriteString("Current Order:\n")
	for i, line := range o.Items {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, line.Name, f.Price(line.UnitPrice))
	}
	fmt.Fprintf(&b, "\nTotal: %s", f.Price(o.Total))
	return b.String()
}

func (f Formatter) History(orders []domain.Order) string {
	if len(orders) == 0 {
		return "No order history available."
	}
	var b strings.Builder
	b.WriteString("Order History:\n")
	for i, o := range orders {
		fmt.Fprintf(&b, "\nOrder %d (%s):\n", i+1, o.Status)
		for _, line := range o.Items {
			fmt.Fprintf(&b, "  - %s - %s\n", line.Name, f.Price(line.UnitPrice))
		}
		fmt.Fprintf(&b, "  Total: %s\n", f.Price(o.Total))
		fmt.Fprintf(&b, "  Date: %s\n", f.Date(o.CreatedAt))
		if o.ScheduledFor != nil {
			fmt.Fprintf(&b, "  Scheduled For: %s\n", f.Date(*o.ScheduledFor))
		}
		if o.PaidAt != nil {
			fmt.Fprintf(&b, "  Paid: %s\n", f.Date(*o.PaidAt))
		}
	}
	return b.String()
}

func (f Formatter) MainOptions() string {
	return "Select 1 to Place an order\n" +
		"Select 99 to checkout order\n" +
		"Select 98 to see order history\n" +
		"Select 97 to see current order\n" +
		"Select 0 to cancel order"
}

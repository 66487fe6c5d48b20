package application

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

type Action string

const (
	ActionNone Action = ""
	ActionPay  Action = "pay"
)

const (
	msgInvalidInput = "Invalid input. Please enter a valid number."
	msgFault        = "An error occurred. Please try again."
)

type Response struct {
	Text    string
	Options string
	Action  Action
	// PayOrder is the history order to pay when Action is ActionPay.
	PayOrder *domain.Order
}

// Transition is the result of one command. State is always a complete session
// state: either the input unchanged or the fully applied next state.
type Transition struct {
	State    domain.SessionState
	Response Response
	Events   []domain.OrderEvent
	Changed  bool
	// Err classifies a locally recovered outcome. It never means State is partial.
	Err error
}

// Machine interprets numeric commands against a session state.
type Machine struct {
	catalog *domain.Catalog
	format  Formatter
	now     func() time.Time
	newID   func() string
}

type MachineOption func(*Machine)

func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

func WithIDGenerator(newID func() string) MachineOption {
	return func(m *Machine) { m.newID = newID }
}

func NewMachine(catalog *domain.Catalog, format Formatter, opts ...MachineOption) *Machine {
	m := &Machine{
		catalog: catalog,
		format:  format,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   newOrderID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newOrderID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (m *Machine) Catalog() *domain.Catalog { return m.catalog }

func (m *Machine) Formatter() Formatter { return m.format }

// NewState returns the state of a session on first contact.
func (m *Machine) NewState() domain.SessionState {
	return domain.NewSessionState(m.newID(), m.now())
}

func (m *Machine) Process(state domain.SessionState, raw string) (tr Transition) {
	defer func() {
		if r := recover(); r != nil {
			tr = Transition{
				State:    state,
				Response: Response{Text: msgFault, Options: m.format.MainOptions()},
				Err:      fmt.Errorf("%w: %v", apperr.ErrInternal, r),
			}
		}
	}()

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Transition{
			State:    state,
			Response: Response{Text: msgInvalidInput, Options: m.format.MainOptions()},
			Err:      fmt.Errorf("%w: %q is not a number", apperr.ErrInvalidInput, raw),
		}
	}

	next := state.Clone()
	if next.Stage == "" {
		next.Stage = domain.StageMain
	}

	switch {
	case n == domain.CmdCheckout:
		tr = m.checkout(next)
	case n == domain.CmdHistory:
		tr = m.history(next)
	case n == domain.CmdCurrent:
		tr = m.current(next)
	case n == domain.CmdCancel:
		tr = m.cancel(next)
	case next.Stage == domain.StageSelecting:
		tr = m.selectItem(next, n)
	case n == domain.CmdMenu:
		tr = m.menu(next)
	case n == domain.CmdPay:
		tr = m.pay(next)
	default:
		tr = m.selectItem(next, n)
	}
	tr.Changed = tr.Changed || tr.State.Stage != state.Stage
	return tr
}

func (m *Machine) mainMenu(s domain.SessionState, text string, err error) Transition {
	s.Stage = domain.StageMain
	return Transition{
		State:    s,
		Response: Response{Text: text, Options: m.format.MainOptions()},
		Err:      err,
	}
}

func (m *Machine) menu(s domain.SessionState) Transition {
	s.Stage = domain.StageSelecting
	return Transition{
		State: s,
		Response: Response{
			Text:    m.format.Menu(m.catalog),
			Options: "Enter item number to add to order, or 99 to checkout, 0 to cancel",
		},
	}
}

func (m *Machine) checkout(s domain.SessionState) Transition {
	if s.CurrentOrder.IsEmpty() {
		return m.mainMenu(s, "No order to place. Your cart is empty.",
			fmt.Errorf("%w: cart is empty", apperr.ErrPreconditionFailed))
	}

	now := m.now()
	placed := s.CurrentOrder.Place(now)
	s.Orders = append(s.Orders, placed)
	s.CurrentOrder = domain.NewOrder(m.newID(), now)
	s.Stage = domain.StageMain

	return Transition{
		State: s,
		Response: Response{
			Text:    fmt.Sprintf("Order placed successfully! Order ID: %s. Proceed to payment.", placed.ID),
			Options: "Enter 1 to start new order or 2 to pay now",
		},
		Events:  []domain.OrderEvent{{Type: domain.EventOrderPlaced, Order: placed, At: now}},
		Changed: true,
	}
}

func (m *Machine) history(s domain.SessionState) Transition {
	return m.mainMenu(s, m.format.History(s.Orders), nil)
}

func (m *Machine) current(s domain.SessionState) Transition {
	return m.mainMenu(s, m.format.CurrentOrder(s.CurrentOrder), nil)
}

func (m *Machine) cancel(s domain.SessionState) Transition {
	if s.CurrentOrder.IsEmpty() {
		return m.mainMenu(s, "No order to cancel.",
			fmt.Errorf("%w: nothing to cancel", apperr.ErrPreconditionFailed))
	}

	now := m.now()
	cancelled := s.CurrentOrder
	s.CurrentOrder = domain.NewOrder(m.newID(), now)
	tr := m.mainMenu(s, "Order cancelled successfully.", nil)
	tr.Events = []domain.OrderEvent{{Type: domain.EventOrderCancelled, Order: cancelled, At: now}}
	tr.Changed = true
	return tr
}

func (m *Machine) pay(s domain.SessionState) Transition {
	last, ok := s.LastOrder()
	if !ok || last.Status != domain.StatusPlaced {
		return m.mainMenu(s, "No pending order to pay for.",
			fmt.Errorf("%w: no placed order", apperr.ErrPreconditionFailed))
	}
	s.Stage = domain.StageMain
	payOrder := last.Clone()
	return Transition{
		State: s,
		Response: Response{
			Text:     "Proceeding to payment...",
			Options:  "Please wait while we redirect you to payment.",
			Action:   ActionPay,
			PayOrder: &payOrder,
		},
	}
}

func (m *Machine) selectItem(s domain.SessionState, id int) Transition {
	item, ok := m.catalog.Lookup(id)
	if !ok {
		return m.mainMenu(s, "Invalid selection.",
			fmt.Errorf("%w: no item %d", apperr.ErrInvalidInput, id))
	}

	s.CurrentOrder = s.CurrentOrder.WithItem(item)
	s.Stage = domain.StageSelecting
	return Transition{
		State: s,
		Response: Response{
			Text: fmt.Sprintf("Added %s to your order. Current total: %s",
				item.Name, m.format.Price(s.CurrentOrder.Total)),
			Options: "Enter another item number, 99 to checkout, or 0 to cancel",
		},
		Changed: true,
	}
}

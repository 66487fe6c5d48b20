package domain

import "time"

// Stage tells the state machine how to read a bare item number.
type Stage string

const (
	StageMain      Stage = "main"
	StageSelecting Stage = "selecting"
)

type SessionState struct {
	CurrentOrder Order   `json:"currentOrder"`
	Orders       []Order `json:"orders"`
	Stage        Stage   `json:"stage"`
}

func NewSessionState(orderID string, now time.Time) SessionState {
	return SessionState{
		CurrentOrder: NewOrder(orderID, now),
		Orders:       []Order{},
		Stage:        StageMain,
	}
}

func (s SessionState) Clone() SessionState {
	c := SessionState{
		CurrentOrder: s.CurrentOrder.Clone(),
		Orders:       make([]Order, len(s.Orders)),
		Stage:        s.Stage,
	}
	for i, o := range s.Orders {
		c.Orders[i] = o.Clone()
	}
	return c
}

// FindOrder returns the index of the history order with the given id, or -1.
func (s SessionState) FindOrder(id string) int {
	for i, o := range s.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// LastOrder returns the most recent history order.
func (s SessionState) LastOrder() (Order, bool) {
	if len(s.Orders) == 0 {
		return Order{}, false
	}
	return s.Orders[len(s.Orders)-1], true
}

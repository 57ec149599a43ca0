package events

import "fmt"

// Category names a group of lifecycle events.
type Category string

const (
	BeforeSend Category = "beforesend"
	Progress   Category = "progress"
	Load       Category = "load"
	Error      Category = "error"
)

// Categories lists every category in dispatch-table order.
var Categories = []Category{BeforeSend, Progress, Load, Error}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case BeforeSend, Progress, Load, Error:
		return true
	}
	return false
}

// Event carries the arguments of a dispatch. Which fields are set depends on
// the category:
//
//	beforesend  none
//	progress    Direction, Raw (transport progress)
//	load        Status ("success"), Body, Raw
//	error       Kind, Detail, RawBody, Raw
type Event struct {
	Category  Category
	Direction string
	Status    string
	Body      any
	Kind      string
	Detail    string
	RawBody   string
	Raw       any
}

func (e Event) String() string {
	switch e.Category {
	case Progress:
		return fmt.Sprintf("progress(%s)", e.Direction)
	case Load:
		return fmt.Sprintf("load(%s)", e.Status)
	case Error:
		return fmt.Sprintf("error(%s: %s)", e.Kind, e.Detail)
	default:
		return string(e.Category)
	}
}

// Callback wraps a listener function with a stable identity.
type Callback struct {
	fn func(Event)
}

// NewCallback wraps fn. A nil fn yields a callback that does nothing.
func NewCallback(fn func(Event)) *Callback {
	return &Callback{fn: fn}
}

// Call invokes the wrapped function.
func (c *Callback) Call(e Event) {
	if c != nil && c.fn != nil {
		c.fn(e)
	}
}

package model

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether s ends the lifecycle.  Nothing enforces
// terminality unless strict transitions are switched on.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusReturned
}

// validNext is the transition table used in strict mode.  Same-state
// writes are always allowed so tracking-only edits pass.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusCompleted: true, StatusReturned: true},
	StatusCompleted: {StatusReturned: true},
	StatusCancelled: {},
	StatusReturned:  {},
}

// CanTransition reports whether strict mode allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	return validNext[from][to]
}

// PaymentStatus is either one of the local values below or a provider
// status stored verbatim by the payment webhook (e.g. "finished").
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
)

// Valid reports whether s is one of the local payment statuses above.
// Provider statuses are not accepted from admin edits.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentExpired:
		return true
	}
	return false
}

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	MethodCrypto  PaymentMethod = "crypto"
	MethodRevolut PaymentMethod = "revolut"
	MethodGumroad PaymentMethod = "gumroad"
	MethodStripe  PaymentMethod = "stripe"
	MethodPending PaymentMethod = "pending"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCrypto, MethodRevolut, MethodGumroad, MethodStripe, MethodPending:
		return true
	}
	return false
}

package cart

import "errors"

var (
	// ErrInvalidInput is returned when the customer name is empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionInactive is returned when a finalized or missing session is mutated.
	ErrSessionInactive = errors.New("session inactive")
	// ErrItemNotFound is returned for keys absent from the catalog.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidQuantity is returned for non-positive or unparseable quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrIndexOutOfRange is returned when removing a position the cart does not have.
	// The session is left untouched.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrEmptyCart is returned when finalizing a cart without items.
	ErrEmptyCart = errors.New("cart empty")
	// ErrNoSession is returned when reading state for an unknown session id.
	ErrNoSession = errors.New("session not found")
	// ErrNoInvoice is returned when reading the invoice of a session still open.
	ErrNoInvoice = errors.New("invoice not generated")
)

// Error kinds exposed to API clients.
const (
	KindInvalidInput    = "INVALID_INPUT"
	KindSessionInactive = "SESSION_INACTIVE"
	KindItemNotFound    = "ITEM_NOT_FOUND"
	KindInvalidQuantity = "INVALID_QUANTITY"
	KindIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	KindEmptyCart       = "EMPTY_CART"
	KindNoSession       = "NO_SESSION"
	KindNoInvoice       = "NO_INVOICE"
	KindInternal        = "INTERNAL"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrSessionInactive, KindSessionInactive},
	{ErrItemNotFound, KindItemNotFound},
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrIndexOutOfRange, KindIndexOutOfRange},
	{ErrEmptyCart, KindEmptyCart},
	{ErrNoSession, KindNoSession},
	{ErrNoInvoice, KindNoInvoice},
}

// Kind classifies err into one of the Kind* tags. Errors outside the cart
// taxonomy are reported as KindInternal.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

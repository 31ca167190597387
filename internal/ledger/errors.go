package ledger

import "errors"

// Rejections of an attempted state transition. A call that returns one of these
// has committed nothing.
var (
	ErrSaleClosed          = errors.New("ledger: ticket sale is closed by seller")
	ErrInsufficientSupply  = errors.New("ledger: not enough tickets available")
	ErrInsufficientPayment = errors.New("ledger: not enough currency was sent")
	ErrArithmeticOverflow  = errors.New("ledger: arithmetic overflow")
	ErrUnauthorized        = errors.New("ledger: caller is not authorized")
	ErrDuplicateEvent      = errors.New("ledger: event already exists")
	ErrNotFound            = errors.New("ledger: event not found")

	ErrInsufficientFunds = errors.New("ledger: account balance too low for attached payment")
	ErrTransferRejected  = errors.New("ledger: recipient does not accept transfers")
	ErrReentrantCall     = errors.New("ledger: reentrant call into event in progress")
	ErrInvalidAddress    = errors.New("ledger: invalid address")
	ErrInvalidIdentifier = errors.New("ledger: invalid event identifier")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrSaleClosed, "SALE_CLOSED"},
	{ErrInsufficientSupply, "INSUFFICIENT_SUPPLY"},
	{ErrInsufficientPayment, "INSUFFICIENT_PAYMENT"},
	{ErrArithmeticOverflow, "ARITHMETIC_OVERFLOW"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrDuplicateEvent, "DUPLICATE_EVENT"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrInsufficientFunds, "INSUFFICIENT_FUNDS"},
	{ErrTransferRejected, "TRANSFER_REJECTED"},
	{ErrReentrantCall, "REENTRANT_CALL"},
	{ErrInvalidAddress, "INVALID_ADDRESS"},
	{ErrInvalidIdentifier, "INVALID_IDENTIFIER"},
}

// Code returns a stable machine-readable name for err: "OK" for nil,
// "INTERNAL" for errors outside this package.
func Code(err error) string {
	if err == nil {
		return "OK"
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

package portt

import "errors"

// Sentinel errors of the core pipeline. Callers match them with errors.Is;
// all wrapping adds detail, never a new category.
var (
	// ErrInvalidTransaction reports a transaction with a non-positive
	// quantity or unit price. The ledger is not mutated.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInsufficientPosition reports a sell whose quantity exceeds the net
	// position held for the symbol. The ledger is not mutated.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrPriceUnavailable reports that no price could be resolved for a
	// symbol: the provider failed after retries and no cached quote is
	// within the staleness window. It is per-symbol and non-fatal; the
	// metrics engine records the symbol as a gap and carries on.
	ErrPriceUnavailable = errors.New("price unavailable")
)

package stacks

import (
	"fmt"
	"math/big"
	"regexp"
)

// FillEvent is the decoded print event the fill gate contract emits for a
// completed fill.
type FillEvent struct {
	OrderID             string   // decimal uint256, as opened on the origin chain
	AmountOut           *big.Int // micro-units actually paid out
	TokenOut            string   // normalized asset symbol ("STX" or "sBTC")
	Recipient           string   // principal that received the payout
	SolverOriginAddress string   // EVM address the solver wants settlement paid to
}

// DecodeError describes a fill print event the decoder could not read. It
// names the missing or malformed field so operators can see exactly what the
// contract emitted.
type DecodeError struct {
	Field string
	Repr  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fill event missing or malformed field %q in %q", e.Field, e.Repr)
}

// The contract prints a Clarity tuple; the indexer exposes it as its textual
// repr. The fields are matched individually so the tuple's key order does not
// matter.
var (
	reOrderID   = regexp.MustCompile(`\(order-id u(\d+)\)`)
	reAmountOut = regexp.MustCompile(`\(amount-out u(\d+)\)`)
	reTokenOut  = regexp.MustCompile(`\(token-out "([^"]*)"\)`)
	reRecipient = regexp.MustCompile(`\(recipient '([A-Za-z0-9.\-]+)\)`)
	reSolver    = regexp.MustCompile(`\(solver-origin-address "([^"]*)"\)`)
)

// DecodeFillEvent parses the print repr of a fill event. Every field is
// required; the first one that fails yields a *DecodeError.
func DecodeFillEvent(repr string) (FillEvent, error) {
	var ev FillEvent

	m := reOrderID.FindStringSubmatch(repr)
	if m == nil {
		return FillEvent{}, &DecodeError{Field: "order-id", Repr: repr}
	}
	ev.OrderID = m[1]

	m = reAmountOut.FindStringSubmatch(repr)
	if m == nil {
		return FillEvent{}, &DecodeError{Field: "amount-out", Repr: repr}
	}
	amount, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return FillEvent{}, &DecodeError{Field: "amount-out", Repr: repr}
	}
	ev.AmountOut = amount

	m = reTokenOut.FindStringSubmatch(repr)
	if m == nil || m[1] == "" {
		return FillEvent{}, &DecodeError{Field: "token-out", Repr: repr}
	}
	// The contract tags the payout asset "native" for STX; anything else is
	// the pegged token. Normalize to the symbols the keeper speaks.
	if m[1] == "native" {
		ev.TokenOut = "STX"
	} else {
		ev.TokenOut = "sBTC"
	}

	m = reRecipient.FindStringSubmatch(repr)
	if m == nil {
		return FillEvent{}, &DecodeError{Field: "recipient", Repr: repr}
	}
	ev.Recipient = m[1]

	m = reSolver.FindStringSubmatch(repr)
	if m == nil || m[1] == "" {
		return FillEvent{}, &DecodeError{Field: "solver-origin-address", Repr: repr}
	}
	ev.SolverOriginAddress = m[1]

	return ev, nil
}

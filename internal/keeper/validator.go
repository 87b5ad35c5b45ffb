// Package keeper contains the trusted oracle side of the bridge: listeners
// that ingest origin OrderOpened events and destination fill events, the
// validator that decides whether a claimed fill honors its order, and the
// settler that releases escrow on the origin chain.
package keeper

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fuelstack/intent-bridge/internal/convert"
	"github.com/fuelstack/intent-bridge/internal/gates"
	"github.com/fuelstack/intent-bridge/internal/ledger"
	"github.com/fuelstack/intent-bridge/internal/stacks"
)

// Verdict is the validator's decision on a claimed fill. A rejection is a
// normal outcome, not an error: the keeper logs the reason and moves on.
type Verdict struct {
	OK     bool
	Reason string
}

func accept() Verdict { return Verdict{OK: true} }

func reject(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// Validator checks destination fill events against the ledger. Checks run in
// a fixed order and short-circuit on the first failure, so the logged reason
// is always the first thing wrong with the fill.
type Validator struct {
	store ledger.Store
	now   func() time.Time
}

// NewValidator creates a validator over the given ledger.
func NewValidator(store ledger.Store) *Validator {
	return &Validator{store: store, now: time.Now}
}

// ValidateEVMFill checks an OrderFilled event from an EVM fill gate. The
// event carries the source chain ID, so the lookup uses the full ledger key.
func (v *Validator) ValidateEVMFill(ev *gates.OrderFilledEvent) (ledger.Order, Verdict) {
	order, err := v.store.Get(ev.SourceChainId.Uint64(), ev.OrderId.String())
	if err != nil {
		return ledger.Order{}, reject("unknown order %s on chain %s", ev.OrderId, ev.SourceChainId)
	}

	if order.Status != ledger.StatusOpened {
		return order, reject("order %s is %s, not OPENED", order.OrderID, order.Status)
	}

	if common.HexToAddress(order.TokenOut) != ev.TokenOut {
		return order, reject("tokenOut mismatch: order wants %s, fill paid %s",
			order.TokenOut, ev.TokenOut.Hex())
	}

	// Same decimals on both EVM sides, so the expected amount is the order's.
	if order.AmountOut.Cmp(ev.AmountOut) != 0 {
		return order, reject("amountOut mismatch: order wants %s, fill paid %s",
			order.AmountOut, ev.AmountOut)
	}

	if common.HexToAddress(order.Recipient) != ev.Recipient {
		return order, reject("recipient mismatch: order wants %s, fill paid %s",
			order.Recipient, ev.Recipient.Hex())
	}

	if verdict := v.checkDeadline(order); !verdict.OK {
		return order, verdict
	}
	return order, accept()
}

// ValidateStacksFill checks a decoded fill print event from the Stacks fill
// gate. The event does not carry the source chain ID, so the order is looked
// up by ID alone.
//
// The recipient is not validated: the order's recipient is an EVM-format
// field and the contract has no origin-side truth to check the principal
// against. A solver paying the wrong principal still gets settled. Closing
// that requires carrying the recipient principal in the order itself.
func (v *Validator) ValidateStacksFill(ev stacks.FillEvent) (ledger.Order, Verdict) {
	order, err := v.store.FindByOrderID(ev.OrderID)
	if err != nil {
		return ledger.Order{}, reject("unknown order %s", ev.OrderID)
	}

	if order.Status != ledger.StatusOpened {
		return order, reject("order %s is %s, not OPENED", order.OrderID, order.Status)
	}

	wantSymbol := convert.KindOfHex(order.TokenOut).String()
	if ev.TokenOut != wantSymbol {
		return order, reject("tokenOut mismatch: order wants %s, fill paid %s",
			wantSymbol, ev.TokenOut)
	}

	expected := convert.ExpectedDestinationAmount(order.TokenOut, order.AmountOut)
	if expected.Cmp(ev.AmountOut) != 0 {
		return order, reject("amountOut mismatch: order wants %s micro-units, fill paid %s",
			expected, ev.AmountOut)
	}

	if !common.IsHexAddress(ev.SolverOriginAddress) {
		return order, reject("solver origin address %q is not an EVM address", ev.SolverOriginAddress)
	}

	if verdict := v.checkDeadline(order); !verdict.OK {
		return order, verdict
	}
	return order, accept()
}

// checkDeadline accepts fills observed at or before the order's deadline.
// A fill at exactly the deadline is valid.
func (v *Validator) checkDeadline(order ledger.Order) Verdict {
	now := v.now().Unix()
	if now > order.FillDeadline {
		return reject("fill deadline %d passed (now %d)", order.FillDeadline, now)
	}
	return accept()
}

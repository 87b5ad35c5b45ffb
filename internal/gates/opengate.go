package gates

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
)

// OpenGate is the escrow contract on an origin chain. Users open orders
// against it; the keeper's oracle settles them after a verified fill.
type OpenGate struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewOpenGate binds the OpenGate at the given address.
func NewOpenGate(address common.Address, client *ethclient.Client) *OpenGate {
	return &OpenGate{
		address:  address,
		contract: bind.NewBoundContract(address, openGateABI, client, client, client),
	}
}

// Address returns the bound contract address.
func (g *OpenGate) Address() common.Address { return g.address }

// OrderView is the on-chain order record returned by orders().
type OrderView struct {
	Sender        common.Address
	TokenIn       common.Address
	AmountIn      *big.Int
	TokenOut      common.Address
	AmountOut     *big.Int
	Recipient     common.Address
	FillDeadline  *big.Int
	SourceChainId *big.Int
}

// Exists reports whether the view describes a real order. The contract
// returns a zeroed struct for unknown IDs.
func (v OrderView) Exists() bool {
	return v.Sender != (common.Address{})
}

// Orders reads the order record for orderID.
func (g *OpenGate) Orders(ctx context.Context, orderID *big.Int) (OrderView, error) {
	var out []interface{}
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "orders", orderID); err != nil {
		return OrderView{}, fmt.Errorf("orders(%s) call failed: %w", orderID, err)
	}
	return OrderView{
		Sender:        *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		TokenIn:       *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		AmountIn:      abi.ConvertType(out[2], new(big.Int)).(*big.Int),
		TokenOut:      *abi.ConvertType(out[3], new(common.Address)).(*common.Address),
		AmountOut:     abi.ConvertType(out[4], new(big.Int)).(*big.Int),
		Recipient:     *abi.ConvertType(out[5], new(common.Address)).(*common.Address),
		FillDeadline:  abi.ConvertType(out[6], new(big.Int)).(*big.Int),
		SourceChainId: abi.ConvertType(out[7], new(big.Int)).(*big.Int),
	}, nil
}

// OrderStatus reads the status sentinel for orderID.
func (g *OpenGate) OrderStatus(ctx context.Context, orderID *big.Int) ([32]byte, error) {
	var out []interface{}
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "orderStatus", orderID); err != nil {
		return [32]byte{}, fmt.Errorf("orderStatus(%s) call failed: %w", orderID, err)
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// Settle submits settle(orderId, solverRecipient), releasing the escrowed
// deposit to the solver's origin-side address.
func (g *OpenGate) Settle(opts *bind.TransactOpts, orderID *big.Int, solverRecipient common.Address) (*types.Transaction, error) {
	return g.contract.Transact(opts, "settle", orderID, solverRecipient)
}

// Open submits open(...), escrowing tokenIn/amountIn. Used by test tooling;
// the keeper and solver never open orders.
func (g *OpenGate) Open(opts *bind.TransactOpts, tokenIn common.Address, amountIn *big.Int,
	tokenOut common.Address, amountOut *big.Int, recipient common.Address,
	fillDeadline, sourceChainID *big.Int) (*types.Transaction, error) {
	return g.contract.Transact(opts, "open", tokenIn, amountIn, tokenOut, amountOut,
		recipient, fillDeadline, sourceChainID)
}

// OrderOpenedEvent is the decoded OrderOpened log.
type OrderOpenedEvent struct {
	OrderId       *big.Int
	Sender        common.Address
	TokenIn       common.Address
	AmountIn      *big.Int
	TokenOut      common.Address
	AmountOut     *big.Int
	Recipient     common.Address
	FillDeadline  *big.Int
	SourceChainId *big.Int
	Raw           types.Log
}

// SubscribeOrderOpened opens a push subscription for OrderOpened logs.
// Callers decode each log with ParseOrderOpened so a malformed event can be
// skipped without tearing the subscription down.
func (g *OpenGate) SubscribeOrderOpened(ctx context.Context) (chan types.Log, event.Subscription, error) {
	return g.contract.WatchLogs(&bind.WatchOpts{Context: ctx}, "OrderOpened")
}

// ParseOrderOpened decodes an OrderOpened log.
func (g *OpenGate) ParseOrderOpened(log types.Log) (*OrderOpenedEvent, error) {
	ev := new(OrderOpenedEvent)
	if err := g.contract.UnpackLog(ev, "OrderOpened", log); err != nil {
		return nil, fmt.Errorf("failed to decode OrderOpened log: %w", err)
	}
	ev.Raw = log
	return ev, nil
}

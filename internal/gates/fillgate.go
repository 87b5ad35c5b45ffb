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

// FillGate is the payout contract on an EVM destination chain. Solvers call
// fill() against it; the keeper watches its OrderFilled events.
type FillGate struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewFillGate binds the FillGate at the given address.
func NewFillGate(address common.Address, client *ethclient.Client) *FillGate {
	return &FillGate{
		address:  address,
		contract: bind.NewBoundContract(address, fillGateABI, client, client, client),
	}
}

// Address returns the bound contract address.
func (g *FillGate) Address() common.Address { return g.address }

// Fill submits fill(...). For a native payout opts.Value carries the amount;
// for a token payout the gate pulls the pre-approved ERC20 balance.
func (g *FillGate) Fill(opts *bind.TransactOpts, orderID *big.Int, tokenOut common.Address,
	amountOut *big.Int, recipient, solverOriginAddress common.Address,
	fillDeadline, sourceChainID *big.Int) (*types.Transaction, error) {
	return g.contract.Transact(opts, "fill", orderID, tokenOut, amountOut,
		recipient, solverOriginAddress, fillDeadline, sourceChainID)
}

// OrderStatus reads the destination-side status sentinel for orderID. Solvers
// use it to avoid double-filling.
func (g *FillGate) OrderStatus(ctx context.Context, orderID *big.Int) ([32]byte, error) {
	var out []interface{}
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "orderStatus", orderID); err != nil {
		return [32]byte{}, fmt.Errorf("orderStatus(%s) call failed: %w", orderID, err)
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// OrderFilledEvent is the decoded OrderFilled log.
type OrderFilledEvent struct {
	OrderId             *big.Int
	Solver              common.Address
	TokenOut            common.Address
	AmountOut           *big.Int
	Recipient           common.Address
	SolverOriginAddress common.Address
	FillDeadline        *big.Int
	SourceChainId       *big.Int
	Raw                 types.Log
}

// SubscribeOrderFilled opens a push subscription for OrderFilled logs.
func (g *FillGate) SubscribeOrderFilled(ctx context.Context) (chan types.Log, event.Subscription, error) {
	return g.contract.WatchLogs(&bind.WatchOpts{Context: ctx}, "OrderFilled")
}

// ParseOrderFilled decodes an OrderFilled log.
func (g *FillGate) ParseOrderFilled(log types.Log) (*OrderFilledEvent, error) {
	ev := new(OrderFilledEvent)
	if err := g.contract.UnpackLog(ev, "OrderFilled", log); err != nil {
		return nil, fmt.Errorf("failed to decode OrderFilled log: %w", err)
	}
	ev.Raw = log
	return ev, nil
}

package keeper

import (
	"context"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/gates"
	"github.com/fuelstack/intent-bridge/internal/ledger"
)

// EVMFillListener watches OrderFilled events on an EVM destination's fill
// gate, validates each claimed fill and hands accepted ones to the settler.
type EVMFillListener struct {
	gate           *gates.FillGate
	chainName      string
	validator      *Validator
	settler        *Settler
	store          ledger.Store
	log            *logrus.Logger
	reconnectDelay time.Duration
}

// NewEVMFillListener creates the destination listener for an EVM fill gate.
func NewEVMFillListener(gate *gates.FillGate, chainName string, validator *Validator,
	settler *Settler, store ledger.Store, log *logrus.Logger, reconnectDelay time.Duration) *EVMFillListener {
	return &EVMFillListener{
		gate:           gate,
		chainName:      chainName,
		validator:      validator,
		settler:        settler,
		store:          store,
		log:            log,
		reconnectDelay: reconnectDelay,
	}
}

// Run subscribes and consumes fill events until ctx is cancelled.
func (l *EVMFillListener) Run(ctx context.Context) {
	l.log.Infof("⚙️  Listening for fills on %s (gate %s)", l.chainName, l.gate.Address().Hex())

	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			l.log.Infof("🔄 Fill listener for %s stopped", l.chainName)
			return
		}
		l.log.Warnf("⚠️  Fill listener for %s lost its subscription, reconnecting in %s: %v",
			l.chainName, l.reconnectDelay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *EVMFillListener) listenOnce(ctx context.Context) error {
	logs, sub, err := l.gate.SubscribeOrderFilled(ctx)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case log := <-logs:
			l.handleLog(ctx, log)
		}
	}
}

func (l *EVMFillListener) handleLog(ctx context.Context, raw ethtypes.Log) {
	ev, err := l.gate.ParseOrderFilled(raw)
	if err != nil {
		l.log.Warnf("⚠️  Skipping undecodable OrderFilled log on %s (tx %s): %v",
			l.chainName, raw.TxHash.Hex(), err)
		return
	}

	l.log.Infof("📥 Fill claimed for order %s by solver %s (%s of %s)",
		ev.OrderId, ev.Solver.Hex(), ev.AmountOut, ev.TokenOut.Hex())

	order, verdict := l.validator.ValidateEVMFill(ev)
	if !verdict.OK {
		l.log.Warnf("🚫 Rejected fill for order %s: %s", ev.OrderId, verdict.Reason)
		return
	}

	if err := l.store.SetStatus(order.SourceChainID, order.OrderID, ledger.StatusFilled); err != nil {
		l.log.Warnf("⚠️  Fill for order %s validated but not recorded: %v", order.OrderID, err)
		return
	}
	l.log.Infof("✅ Order %s marked FILLED", order.OrderID)

	if err := l.settler.Settle(ctx, order, ev.SolverOriginAddress); err != nil {
		l.log.Errorf("❌ Settlement of order %s failed, order stays FILLED: %v", order.OrderID, err)
	}
}

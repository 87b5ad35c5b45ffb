package keeper

import (
	"context"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/ledger"
)

// OpenListener ingests OrderOpened events from one origin chain into the
// ledger. One listener goroutine runs per configured source chain.
type OpenListener struct {
	origin         *config.OriginChain
	store          ledger.Store
	log            *logrus.Logger
	reconnectDelay time.Duration
}

// NewOpenListener creates a listener for one origin chain.
func NewOpenListener(origin *config.OriginChain, store ledger.Store, log *logrus.Logger, reconnectDelay time.Duration) *OpenListener {
	return &OpenListener{
		origin:         origin,
		store:          store,
		log:            log,
		reconnectDelay: reconnectDelay,
	}
}

// Run subscribes and consumes events until ctx is cancelled, re-subscribing
// after transport failures.
func (l *OpenListener) Run(ctx context.Context) {
	l.log.Infof("⚙️  Listening for opened orders on %s (gate %s)",
		l.origin.Name, l.origin.OpenGate.Address().Hex())

	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			l.log.Infof("🔄 Open listener for %s stopped", l.origin.Name)
			return
		}
		l.log.Warnf("⚠️  Open listener for %s lost its subscription, reconnecting in %s: %v",
			l.origin.Name, l.reconnectDelay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *OpenListener) listenOnce(ctx context.Context) error {
	logs, sub, err := l.origin.OpenGate.SubscribeOrderOpened(ctx)
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
			l.handleLog(log)
		}
	}
}

func (l *OpenListener) handleLog(raw ethtypes.Log) {
	ev, err := l.origin.OpenGate.ParseOrderOpened(raw)
	if err != nil {
		// One bad event must not stall the chain's ingestion.
		l.log.Warnf("⚠️  Skipping undecodable OrderOpened log on %s (tx %s): %v",
			l.origin.Name, raw.TxHash.Hex(), err)
		return
	}

	order := ledger.Order{
		OrderID:       ev.OrderId.String(),
		SourceChainID: ev.SourceChainId.Uint64(),
		Sender:        ev.Sender.Hex(),
		TokenIn:       ev.TokenIn.Hex(),
		AmountIn:      ev.AmountIn,
		TokenOut:      ev.TokenOut.Hex(),
		AmountOut:     ev.AmountOut,
		Recipient:     ev.Recipient.Hex(),
		FillDeadline:  ev.FillDeadline.Int64(),
	}

	inserted, err := l.store.Insert(order)
	if err != nil {
		l.log.Errorf("❌ Failed to record order %s from %s: %v", order.OrderID, l.origin.Name, err)
		return
	}
	if !inserted {
		l.log.Debugf("Order %s on chain %d already recorded, skipping replayed event",
			order.OrderID, order.SourceChainID)
		return
	}

	l.log.Infof("📜 Order %s opened on %s: %s %s in, %s out to %s, deadline %d",
		order.OrderID, l.origin.Name, order.AmountIn, order.TokenIn,
		order.AmountOut, order.Recipient, order.FillDeadline)
}

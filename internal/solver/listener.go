// Package solver implements the filling side of the bridge: it watches one
// origin chain for opened orders and pays them out on the destination chain,
// fronting its own liquidity until the keeper settles the escrow back.
package solver

import (
	"context"
	"math/big"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
)

// Filler pays one order out on the destination chain. It reports false when
// the order was deliberately skipped (already filled, expired, unknown).
type Filler interface {
	FillOrder(ctx context.Context, orderID *big.Int) (bool, error)
}

// Listener subscribes to OrderOpened events on the origin chain and feeds
// them to the filler.
type Listener struct {
	origin         *config.OriginChain
	filler         Filler
	log            *logrus.Logger
	autoFill       bool
	fillDelay      time.Duration
	reconnectDelay time.Duration
}

// NewListener creates the solver's order listener.
func NewListener(origin *config.OriginChain, filler Filler, cfg *config.Config, log *logrus.Logger) *Listener {
	return &Listener{
		origin:         origin,
		filler:         filler,
		log:            log,
		autoFill:       cfg.AutoFill,
		fillDelay:      cfg.FillDelay,
		reconnectDelay: cfg.ReconnectDelay,
	}
}

// Run subscribes and consumes events until ctx is cancelled, re-subscribing
// after transport failures.
func (l *Listener) Run(ctx context.Context) {
	l.log.Infof("⚙️  Watching %s for orders to fill (gate %s)",
		l.origin.Name, l.origin.OpenGate.Address().Hex())

	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			l.log.Infof("🔄 Order listener for %s stopped", l.origin.Name)
			return
		}
		l.log.Warnf("⚠️  Order listener for %s lost its subscription, reconnecting in %s: %v",
			l.origin.Name, l.reconnectDelay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
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
			l.handleLog(ctx, log)
		}
	}
}

func (l *Listener) handleLog(ctx context.Context, raw ethtypes.Log) {
	ev, err := l.origin.OpenGate.ParseOrderOpened(raw)
	if err != nil {
		l.log.Warnf("⚠️  Skipping undecodable OrderOpened log on %s (tx %s): %v",
			l.origin.Name, raw.TxHash.Hex(), err)
		return
	}

	l.log.Infof("📜 Order %s opened on %s: %s out to %s", ev.OrderId, l.origin.Name,
		ev.AmountOut, ev.Recipient.Hex())

	if !l.autoFill {
		l.log.Infof("⏸️  Auto-fill disabled, leaving order %s to a manual fill", ev.OrderId)
		return
	}

	if l.fillDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.fillDelay):
		}
	}

	filled, err := l.filler.FillOrder(ctx, ev.OrderId)
	if err != nil {
		l.log.Errorf("❌ Failed to fill order %s: %v", ev.OrderId, err)
		return
	}
	if !filled {
		l.log.Infof("⏭️  Skipped order %s", ev.OrderId)
		return
	}
	l.log.Infof("🎉 Order %s filled", ev.OrderId)
}

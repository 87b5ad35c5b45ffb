package keeper

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/ledger"
	"github.com/fuelstack/intent-bridge/internal/stacks"
)

// eventPageSize is how many recent contract events each poll fetches.
const eventPageSize = 20

// StacksFillListener polls the indexer's contract event feed for the fill
// gate's print events. The feed is newest-first; the listener remembers the
// last event it processed and stops each scan there, so every event is
// handled once. Polls never overlap: a slow poll delays the next tick.
type StacksFillListener struct {
	client       *stacks.Client
	contractID   string
	validator    *Validator
	settler      *Settler
	store        ledger.Store
	log          *logrus.Logger
	pollInterval time.Duration

	lastEventID string
}

// NewStacksFillListener creates the destination listener for the Stacks fill
// gate contract ("DEPLOYER.contract-name").
func NewStacksFillListener(client *stacks.Client, contractID string, validator *Validator,
	settler *Settler, store ledger.Store, log *logrus.Logger, pollInterval time.Duration) *StacksFillListener {
	return &StacksFillListener{
		client:       client,
		contractID:   contractID,
		validator:    validator,
		settler:      settler,
		store:        store,
		log:          log,
		pollInterval: pollInterval,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (l *StacksFillListener) Run(ctx context.Context) {
	l.log.Infof("⚙️  Polling %s for fill events every %s", l.contractID, l.pollInterval)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	l.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			l.log.Info("🔄 Stacks fill listener stopped")
			return
		case <-ticker.C:
			l.poll(ctx)
		}
	}
}

func (l *StacksFillListener) poll(ctx context.Context) {
	events, err := l.client.ContractEvents(ctx, l.contractID, eventPageSize)
	if err != nil {
		if ctx.Err() == nil {
			l.log.Warnf("⚠️  Failed to poll %s, will retry next tick: %v", l.contractID, err)
		}
		return
	}
	if len(events) == 0 {
		return
	}

	for _, ev := range events {
		if ev.ID() == l.lastEventID {
			break
		}
		l.handleEvent(ctx, ev)
	}
	l.lastEventID = events[0].ID()
}

func (l *StacksFillListener) handleEvent(ctx context.Context, ev stacks.ContractEvent) {
	if ev.EventType != "smart_contract_log" || ev.ContractLog == nil {
		return
	}
	if ev.ContractLog.Topic != "print" {
		return
	}

	fill, err := stacks.DecodeFillEvent(ev.ContractLog.Value.Repr)
	if err != nil {
		l.log.Warnf("⚠️  Skipping undecodable print event %s: %v", ev.ID(), err)
		return
	}

	l.log.Infof("📥 Fill claimed for order %s on Stacks: %s %s to %s (settlement to %s)",
		fill.OrderID, fill.AmountOut, fill.TokenOut, fill.Recipient, fill.SolverOriginAddress)

	order, verdict := l.validator.ValidateStacksFill(fill)
	if !verdict.OK {
		l.log.Warnf("🚫 Rejected fill for order %s: %s", fill.OrderID, verdict.Reason)
		return
	}

	if err := l.store.SetStatus(order.SourceChainID, order.OrderID, ledger.StatusFilled); err != nil {
		l.log.Warnf("⚠️  Fill for order %s validated but not recorded: %v", order.OrderID, err)
		return
	}
	l.log.Infof("✅ Order %s marked FILLED", order.OrderID)

	solverRecipient := common.HexToAddress(fill.SolverOriginAddress)
	if err := l.settler.Settle(ctx, order, solverRecipient); err != nil {
		l.log.Errorf("❌ Settlement of order %s failed, order stays FILLED: %v", order.OrderID, err)
	}
}

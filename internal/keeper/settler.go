package keeper

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/ledger"
)

// RetryPolicy decides whether a failed settlement submission is retried and
// after how long. attempt counts completed attempts, starting at 1.
type RetryPolicy interface {
	NextDelay(attempt int, err error) (time.Duration, bool)
}

// NoRetry fails settlement on the first error. The order stays FILLED in the
// ledger, so an operator can re-trigger settlement after fixing the cause.
type NoRetry struct{}

func (NoRetry) NextDelay(int, error) (time.Duration, bool) { return 0, false }

// FixedRetry retries up to Attempts times, waiting Delay between tries.
type FixedRetry struct {
	Attempts int
	Delay    time.Duration
}

func (r FixedRetry) NextDelay(attempt int, _ error) (time.Duration, bool) {
	return r.Delay, attempt < r.Attempts
}

// SettlementSubmitter submits the settle transaction on an origin chain and
// waits for it to be mined.
type SettlementSubmitter interface {
	SubmitSettle(ctx context.Context, sourceChainID uint64, orderID *big.Int, solverRecipient common.Address) error
}

// Settler releases escrow for validated fills. The ledger's status gate makes
// settlement exactly-once: only a FILLED order settles, and the transition to
// SETTLED happens after the transaction is mined.
type Settler struct {
	store     ledger.Store
	submitter SettlementSubmitter
	policy    RetryPolicy
	log       *logrus.Logger
}

// NewSettler creates a settler. A nil policy means NoRetry.
func NewSettler(store ledger.Store, submitter SettlementSubmitter, policy RetryPolicy, log *logrus.Logger) *Settler {
	if policy == nil {
		policy = NoRetry{}
	}
	return &Settler{store: store, submitter: submitter, policy: policy, log: log}
}

// Settle submits settle(orderId, solverRecipient) on the order's origin chain
// and marks the order SETTLED once mined. On failure the order stays FILLED
// and the error is returned.
func (s *Settler) Settle(ctx context.Context, order ledger.Order, solverRecipient common.Address) error {
	current, err := s.store.Get(order.SourceChainID, order.OrderID)
	if err != nil {
		return fmt.Errorf("cannot settle order %s: %w", order.OrderID, err)
	}
	if current.Status != ledger.StatusFilled {
		return fmt.Errorf("cannot settle order %s: status is %s", order.OrderID, current.Status)
	}

	orderID, ok := new(big.Int).SetString(order.OrderID, 10)
	if !ok {
		return fmt.Errorf("cannot settle order: unparseable order ID %q", order.OrderID)
	}

	for attempt := 1; ; attempt++ {
		err = s.submitter.SubmitSettle(ctx, order.SourceChainID, orderID, solverRecipient)
		if err == nil {
			break
		}

		delay, retry := s.policy.NextDelay(attempt, err)
		if !retry {
			return fmt.Errorf("settlement of order %s failed after %d attempt(s): %w",
				order.OrderID, attempt, err)
		}
		s.log.Warnf("⚠️  Settlement attempt %d for order %s failed, retrying in %s: %v",
			attempt, order.OrderID, delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if err := s.store.SetStatus(order.SourceChainID, order.OrderID, ledger.StatusSettled); err != nil {
		return fmt.Errorf("order %s settled on chain but ledger update failed: %w", order.OrderID, err)
	}
	s.log.Infof("🏁 Order %s settled on chain %d, solver paid at %s",
		order.OrderID, order.SourceChainID, solverRecipient.Hex())
	return nil
}

// registrySubmitter is the production SettlementSubmitter: it resolves the
// origin chain in the registry and sends the settle transaction with the
// oracle key.
type registrySubmitter struct {
	registry *config.Registry
	key      *ecdsa.PrivateKey

	mu          sync.Mutex
	transactors map[uint64]*bind.TransactOpts
}

// NewRegistrySubmitter creates the registry-backed submitter for the oracle
// key given as hex.
func NewRegistrySubmitter(registry *config.Registry, oracleKeyHex string) (SettlementSubmitter, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(oracleKeyHex))
	if err != nil {
		return nil, fmt.Errorf("invalid oracle private key: %w", err)
	}
	return &registrySubmitter{
		registry:    registry,
		key:         key,
		transactors: make(map[uint64]*bind.TransactOpts),
	}, nil
}

func (r *registrySubmitter) SubmitSettle(ctx context.Context, sourceChainID uint64, orderID *big.Int, solverRecipient common.Address) error {
	origin, err := r.registry.Origin(sourceChainID)
	if err != nil {
		return err
	}

	opts, err := r.transactor(ctx, sourceChainID)
	if err != nil {
		return err
	}

	tx, err := origin.OpenGate.Settle(opts, orderID, solverRecipient)
	if err != nil {
		return fmt.Errorf("settle transaction submission failed: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, origin.Client, tx)
	if err != nil {
		return fmt.Errorf("waiting for settle transaction %s: %w", tx.Hash(), err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("settle transaction %s reverted", tx.Hash())
	}
	return nil
}

// transactor returns a per-call copy of the chain's cached TransactOpts with
// ctx attached. The cached value is never handed out, so concurrent
// settlements cannot race on it.
func (r *registrySubmitter) transactor(ctx context.Context, chainID uint64) (*bind.TransactOpts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts, ok := r.transactors[chainID]
	if !ok {
		var err error
		opts, err = bind.NewKeyedTransactorWithChainID(r.key, new(big.Int).SetUint64(chainID))
		if err != nil {
			return nil, fmt.Errorf("failed to build transactor for chain %d: %w", chainID, err)
		}
		r.transactors[chainID] = opts
	}

	call := *opts
	call.Context = ctx
	return &call, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

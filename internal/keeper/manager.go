package keeper

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/gates"
	"github.com/fuelstack/intent-bridge/internal/ledger"
	"github.com/fuelstack/intent-bridge/internal/stacks"
)

// Manager wires the keeper together: one open listener per origin chain, one
// destination fill listener, the shared validator and settler.
type Manager struct {
	cfg      *config.Config
	registry *config.Registry
	store    ledger.Store
	log      *logrus.Logger

	destClient *ethclient.Client
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewManager creates a keeper manager over an already-built registry.
func NewManager(cfg *config.Config, registry *config.Registry, store ledger.Store, log *logrus.Logger) *Manager {
	return &Manager{cfg: cfg, registry: registry, store: store, log: log}
}

// Start builds and launches all listeners. It returns once everything is
// running; Stop tears it down.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	submitter, err := NewRegistrySubmitter(m.registry, m.cfg.OraclePrivateKey)
	if err != nil {
		return err
	}
	validator := NewValidator(m.store)
	settler := NewSettler(m.store, submitter, NoRetry{}, m.log)

	for _, origin := range m.registry.Origins() {
		listener := NewOpenListener(origin, m.store, m.log, m.cfg.ReconnectDelay)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			listener.Run(ctx)
		}()
	}

	switch m.cfg.DestinationType {
	case "stacks":
		client := stacks.NewClient(m.cfg.StacksDest.APIURL)
		listener := NewStacksFillListener(client, m.cfg.StacksDest.FillGateContract,
			validator, settler, m.store, m.log, m.cfg.StacksPollInterval)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			listener.Run(ctx)
		}()

	case "evm":
		destClient, err := ethclient.Dial(m.cfg.EVMDest.RPCURL)
		if err != nil {
			m.cancel()
			return fmt.Errorf("failed to dial destination %s: %w", m.cfg.EVMDest.RPCURL, err)
		}
		m.destClient = destClient
		gate := gates.NewFillGate(m.cfg.EVMDest.FillGate, destClient)
		listener := NewEVMFillListener(gate, m.cfg.EVMDest.Name,
			validator, settler, m.store, m.log, m.cfg.ReconnectDelay)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			listener.Run(ctx)
		}()

	default:
		m.cancel()
		return fmt.Errorf("unknown destination type %q", m.cfg.DestinationType)
	}

	m.log.Infof("✅ Keeper running: %d origin chain(s), %s destination",
		len(m.registry.Origins()), m.cfg.DestinationType)
	return nil
}

// Stop cancels all listeners, waits for them and dumps the ledger.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	if m.destClient != nil {
		m.destClient.Close()
	}
	m.dumpLedger()
}

// dumpLedger prints every tracked order, the operator's shutdown snapshot.
func (m *Manager) dumpLedger() {
	orders, err := m.store.All()
	if err != nil {
		m.log.Errorf("❌ Failed to dump ledger: %v", err)
		return
	}

	m.log.Infof("📒 Ledger: %d order(s) tracked", len(orders))
	for _, o := range orders {
		m.log.Infof("   [%s] order %s (chain %d): %s %s -> %s to %s, deadline %d",
			o.Status, o.OrderID, o.SourceChainID, o.AmountIn, o.TokenIn,
			o.AmountOut, o.Recipient, o.FillDeadline)
	}
}

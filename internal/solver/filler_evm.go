package solver

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/convert"
	"github.com/fuelstack/intent-bridge/internal/gates"
)

// EVMFiller pays orders out through an EVM destination's fill gate: native
// transfers ride the fill transaction's value, pegged transfers are pulled by
// the gate from a pre-approved ERC20 balance.
type EVMFiller struct {
	origin     *config.OriginChain
	destClient *ethclient.Client
	gate       *gates.FillGate
	sbtc       *gates.ERC20
	opts       *bind.TransactOpts
	solverAddr common.Address
	log        *logrus.Logger
}

// NewEVMFiller dials the destination chain and prepares the solver's
// transactor.
func NewEVMFiller(origin *config.OriginChain, dest config.EVMDestination, solverKeyHex string, log *logrus.Logger) (*EVMFiller, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(solverKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid solver private key: %w", err)
	}

	destClient, err := ethclient.Dial(dest.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial destination %s: %w", dest.RPCURL, err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(dest.ChainID))
	if err != nil {
		destClient.Close()
		return nil, fmt.Errorf("failed to build destination transactor: %w", err)
	}

	f := &EVMFiller{
		origin:     origin,
		destClient: destClient,
		gate:       gates.NewFillGate(dest.FillGate, destClient),
		opts:       opts,
		solverAddr: crypto.PubkeyToAddress(key.PublicKey),
		log:        log,
	}
	if dest.SBTCToken != (common.Address{}) {
		f.sbtc = gates.NewERC20(dest.SBTCToken, destClient)
	}
	return f, nil
}

// Close releases the destination client.
func (f *EVMFiller) Close() { f.destClient.Close() }

// FillOrder re-reads the order from origin chain state, checks it is still
// fillable, and submits the fill.
func (f *EVMFiller) FillOrder(ctx context.Context, orderID *big.Int) (bool, error) {
	view, err := f.origin.OpenGate.Orders(ctx, orderID)
	if err != nil {
		return false, err
	}
	if !view.Exists() {
		f.log.Warnf("⏭️  Order %s does not exist on %s", orderID, f.origin.Name)
		return false, nil
	}

	status, err := f.origin.OpenGate.OrderStatus(ctx, orderID)
	if err != nil {
		return false, err
	}
	if status != gates.StatusOpened {
		f.log.Infof("⏭️  Order %s is %s on origin, skipping", orderID, gates.StatusLabel(status))
		return false, nil
	}

	if time.Now().Unix() > view.FillDeadline.Int64() {
		f.log.Infof("⏭️  Order %s deadline %s passed, skipping", orderID, view.FillDeadline)
		return false, nil
	}

	destStatus, err := f.gate.OrderStatus(ctx, orderID)
	if err != nil {
		return false, err
	}
	if destStatus == gates.StatusFilled {
		f.log.Infof("⏭️  Order %s already filled on destination, skipping", orderID)
		return false, nil
	}

	opts := *f.opts
	opts.Context = ctx

	if convert.KindOf(view.TokenOut) == convert.KindNative {
		opts.Value = view.AmountOut
	} else {
		if err := f.ensureAllowance(ctx, view.AmountOut); err != nil {
			return false, err
		}
	}

	tx, err := f.gate.Fill(&opts, orderID, view.TokenOut, view.AmountOut,
		view.Recipient, f.solverAddr, view.FillDeadline, view.SourceChainId)
	if err != nil {
		return false, fmt.Errorf("fill transaction submission failed: %w", err)
	}
	f.log.Infof("📤 Fill for order %s submitted: %s", orderID, tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, f.destClient, tx)
	if err != nil {
		return false, fmt.Errorf("waiting for fill transaction %s: %w", tx.Hash(), err)
	}
	if receipt.Status != 1 {
		return false, fmt.Errorf("fill transaction %s reverted", tx.Hash())
	}
	return true, nil
}

// ensureAllowance tops the gate's ERC20 allowance up before a pegged fill.
func (f *EVMFiller) ensureAllowance(ctx context.Context, amount *big.Int) error {
	if f.sbtc == nil {
		return fmt.Errorf("pegged fill requested but no sBTC token is configured")
	}

	balance, err := f.sbtc.BalanceOf(ctx, f.solverAddr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient sBTC balance: have %s, need %s", balance, amount)
	}

	allowance, err := f.sbtc.Allowance(ctx, f.solverAddr, f.gate.Address())
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	opts := *f.opts
	opts.Context = ctx
	tx, err := f.sbtc.Approve(&opts, f.gate.Address(), amount)
	if err != nil {
		return fmt.Errorf("approve submission failed: %w", err)
	}
	f.log.Infof("🔓 Raising sBTC allowance to %s: %s", amount, tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, f.destClient, tx)
	if err != nil {
		return fmt.Errorf("waiting for approve transaction %s: %w", tx.Hash(), err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("approve transaction %s reverted", tx.Hash())
	}
	return nil
}

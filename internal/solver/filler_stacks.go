package solver

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/convert"
	"github.com/fuelstack/intent-bridge/internal/gates"
	"github.com/fuelstack/intent-bridge/internal/stacks"
)

// txConfirmPollInterval is how often the filler checks a broadcast
// transaction's status while waiting for it to be mined.
const txConfirmPollInterval = 10 * time.Second

// StacksFiller pays orders out on Stacks: STX through the fill gate's
// fill-native, sBTC through fill-token. Every transaction carries a deny-mode
// post-condition capping what the solver account can send.
type StacksFiller struct {
	origin  *config.OriginChain
	client  *stacks.Client
	dest    config.StacksDestination
	network stacks.Network

	key     *ecdsa.PrivateKey
	address string // solver's Stacks principal, derived from key

	recipient        string // destination principal orders pay out to
	solverEVMAddress string // origin-side address settlement pays the solver at

	log *logrus.Logger
}

// NewStacksFiller derives the solver's Stacks account and prepares the API
// client.
func NewStacksFiller(origin *config.OriginChain, cfg *config.Config, log *logrus.Logger) (*StacksFiller, error) {
	dest := cfg.StacksDest
	network, err := stacks.ParseNetwork(dest.Network)
	if err != nil {
		return nil, err
	}

	key, err := stacks.ParsePrivateKey(cfg.SolverStacksPrivateKey)
	if err != nil {
		return nil, err
	}

	if _, _, err := stacks.DecodeAddress(strings.SplitN(dest.FillGateContract, ".", 2)[0]); err != nil {
		return nil, fmt.Errorf("invalid fill gate contract %q: %w", dest.FillGateContract, err)
	}
	if _, _, err := stacks.DecodeAddress(strings.SplitN(cfg.StacksRecipient, ".", 2)[0]); err != nil {
		return nil, fmt.Errorf("invalid recipient principal %q: %w", cfg.StacksRecipient, err)
	}

	return &StacksFiller{
		origin:           origin,
		client:           stacks.NewClient(dest.APIURL),
		dest:             dest,
		network:          network,
		key:              key,
		address:          stacks.AddressFromPrivateKey(key, network),
		recipient:        cfg.StacksRecipient,
		solverEVMAddress: cfg.SolverEVMAddress,
		log:              log,
	}, nil
}

// Address returns the solver's Stacks principal.
func (f *StacksFiller) Address() string { return f.address }

// FillOrder re-reads the order from origin chain state, converts the amount
// to destination units, and submits the matching contract call.
func (f *StacksFiller) FillOrder(ctx context.Context, orderID *big.Int) (bool, error) {
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

	kind := convert.KindOf(view.TokenOut)
	amount := convert.ToDestinationAmount(view.AmountOut, kind)
	if amount.Sign() == 0 {
		f.log.Infof("⏭️  Order %s converts to zero %s, skipping", orderID, kind)
		return false, nil
	}
	if !amount.IsUint64() {
		return false, fmt.Errorf("order %s amount %s overflows destination units", orderID, amount)
	}

	account, err := f.client.Account(ctx, f.address)
	if err != nil {
		return false, err
	}

	needed := new(big.Int).SetUint64(f.dest.FillFee)
	if kind == convert.KindNative {
		needed.Add(needed, amount)
	}
	if account.Balance.Cmp(needed) < 0 {
		return false, fmt.Errorf("insufficient STX balance for order %s: have %s micro-STX, need %s",
			orderID, account.Balance, needed)
	}

	call, err := f.buildFillCall(orderID, view, kind, amount.Uint64(), account.Nonce)
	if err != nil {
		return false, err
	}

	raw, err := call.Sign(f.key)
	if err != nil {
		return false, fmt.Errorf("failed to sign fill for order %s: %w", orderID, err)
	}

	txid, err := f.client.BroadcastTransaction(ctx, raw)
	if err != nil {
		return false, fmt.Errorf("failed to broadcast fill for order %s: %w", orderID, err)
	}
	f.log.Infof("📤 Fill for order %s broadcast: %s (%d %s to %s)",
		orderID, txid, amount, kind, f.recipient)

	if err := f.client.WaitForTransaction(ctx, txid, txConfirmPollInterval); err != nil {
		return false, fmt.Errorf("fill %s for order %s did not confirm: %w", txid, orderID, err)
	}
	return true, nil
}

// buildFillCall assembles the unsigned contract call for one order.
func (f *StacksFiller) buildFillCall(orderID *big.Int, view gates.OrderView,
	kind convert.Kind, amount, nonce uint64) (*stacks.ContractCall, error) {
	gateAddr, gateName, found := strings.Cut(f.dest.FillGateContract, ".")
	if !found {
		return nil, fmt.Errorf("fill gate contract %q is not an ADDR.name principal", f.dest.FillGateContract)
	}

	args := []stacks.ClarityValue{
		stacks.NewUintCV(orderID),
		stacks.NewUintCV(new(big.Int).SetUint64(amount)),
		stacks.NewPrincipalCV(f.recipient),
		stacks.StringASCIICV{Value: f.solverEVMAddress},
		stacks.NewUintCV(view.FillDeadline),
		stacks.NewUintCV(view.SourceChainId),
	}

	call := &stacks.ContractCall{
		Network:         f.network,
		ContractAddress: gateAddr,
		ContractName:    gateName,
		Fee:             f.dest.FillFee,
		Nonce:           nonce,
	}

	if kind == convert.KindNative {
		call.FunctionName = "fill-native"
		call.Args = args
		call.PostConditions = []stacks.PostCondition{
			stacks.STXPostCondition{
				Principal: f.address,
				Code:      stacks.ConditionSentLte,
				Amount:    amount,
			},
		}
		return call, nil
	}

	if f.dest.SBTCContract == "" {
		return nil, fmt.Errorf("pegged fill requested but STACKS_SBTC_CONTRACT is not configured")
	}
	call.FunctionName = "fill-token"
	// fill-token takes the token trait reference right after the order ID.
	call.Args = append([]stacks.ClarityValue{args[0], stacks.NewPrincipalCV(f.dest.SBTCContract)}, args[1:]...)
	call.PostConditions = []stacks.PostCondition{
		stacks.FungiblePostCondition{
			Principal:     f.address,
			AssetContract: f.dest.SBTCContract,
			AssetName:     f.dest.SBTCAssetName,
			Code:          stacks.ConditionSentLte,
			Amount:        amount,
		},
	}
	return call, nil
}

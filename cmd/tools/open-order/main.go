// open-order is a development tool that opens a demo order against a
// configured source chain's OpenGate, the way a user-facing frontend would.
package main

import (
	"context"
	"flag"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/gates"
)

func main() {
	var (
		keyHex    = flag.String("key", "", "sender private key (hex)")
		chainID   = flag.Uint64("chain", 421614, "source chain ID")
		tokenIn   = flag.String("token-in", "", "deposit token address")
		amountIn  = flag.String("amount-in", "100000000", "deposit amount")
		tokenOut  = flag.String("token-out", "0x0000000000000000000000000000000000000000", "payout asset (zero = native)")
		amountOut = flag.String("amount-out", "1000000000000000000", "payout amount, origin decimals")
		recipient = flag.String("recipient", "", "destination recipient")
		deadline  = flag.Duration("deadline", time.Hour, "fill deadline from now")
	)
	flag.Parse()

	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if *keyHex == "" || *tokenIn == "" || *recipient == "" {
		logger.Fatal("❌ -key, -token-in and -recipient are required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(*keyHex, "0x"))
	if err != nil {
		logger.Fatalf("❌ Invalid private key: %v", err)
	}

	registry, err := config.NewRegistry(cfg.SourceChains, logger)
	if err != nil {
		logger.Fatalf("❌ Failed to connect to source chains: %v", err)
	}
	defer registry.Close()

	origin, err := registry.Origin(*chainID)
	if err != nil {
		logger.Fatalf("❌ %v", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(*chainID))
	if err != nil {
		logger.Fatalf("❌ Failed to build transactor: %v", err)
	}
	ctx := context.Background()
	opts.Context = ctx

	in, ok := new(big.Int).SetString(*amountIn, 10)
	if !ok {
		logger.Fatalf("❌ Invalid amount-in %q", *amountIn)
	}
	out, ok := new(big.Int).SetString(*amountOut, 10)
	if !ok {
		logger.Fatalf("❌ Invalid amount-out %q", *amountOut)
	}

	// The gate pulls the deposit, so it needs an allowance first.
	token := gates.NewERC20(common.HexToAddress(*tokenIn), origin.Client)
	approveTx, err := token.Approve(opts, origin.OpenGate.Address(), in)
	if err != nil {
		logger.Fatalf("❌ Approve failed: %v", err)
	}
	if _, err := bind.WaitMined(ctx, origin.Client, approveTx); err != nil {
		logger.Fatalf("❌ Approve not mined: %v", err)
	}
	logger.Infof("🔓 Approved %s for %s", in, origin.OpenGate.Address().Hex())

	tx, err := origin.OpenGate.Open(opts,
		common.HexToAddress(*tokenIn), in,
		common.HexToAddress(*tokenOut), out,
		common.HexToAddress(*recipient),
		big.NewInt(time.Now().Add(*deadline).Unix()),
		new(big.Int).SetUint64(*chainID))
	if err != nil {
		logger.Fatalf("❌ Open failed: %v", err)
	}

	receipt, err := bind.WaitMined(ctx, origin.Client, tx)
	if err != nil {
		logger.Fatalf("❌ Open not mined: %v", err)
	}
	if receipt.Status != 1 {
		logger.Fatalf("❌ Open transaction %s reverted", tx.Hash().Hex())
	}

	for _, raw := range receipt.Logs {
		ev, err := origin.OpenGate.ParseOrderOpened(*raw)
		if err != nil {
			continue
		}
		logger.Infof("📜 Order %s opened on %s (tx %s)", ev.OrderId, origin.Name, tx.Hash().Hex())
		return
	}
	logger.Infof("✅ Open transaction mined: %s", tx.Hash().Hex())
}

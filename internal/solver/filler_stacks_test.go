package solver

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/convert"
	"github.com/fuelstack/intent-bridge/internal/gates"
	"github.com/fuelstack/intent-bridge/internal/stacks"
)

func testAddr(t *testing.T, firstByte byte) string {
	t.Helper()
	var hash160 [20]byte
	hash160[0] = firstByte
	return stacks.EncodeAddress(stacks.VersionTestnetP2PKH, hash160)
}

func newTestStacksFiller(t *testing.T) *StacksFiller {
	t.Helper()

	cfg := &config.Config{
		SolverStacksPrivateKey: "1111111111111111111111111111111111111111111111111111111111111111",
		SolverEVMAddress:       "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
		StacksRecipient:        testAddr(t, 0x01),
		StacksDest: config.StacksDestination{
			Network:          "testnet",
			APIURL:           "http://localhost:3999",
			FillGateContract: testAddr(t, 0x02) + ".fill-gate",
			SBTCContract:     testAddr(t, 0x03) + ".sbtc-token",
			SBTCAssetName:    "sbtc-token",
			FillFee:          10000,
		},
	}

	filler, err := NewStacksFiller(nil, cfg, logrus.New())
	require.NoError(t, err)
	return filler
}

func nativeOrderView() gates.OrderView {
	amountOut, _ := new(big.Int).SetString("5000000000000000000", 10)
	return gates.OrderView{
		Sender:        common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906"),
		TokenIn:       common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		AmountIn:      big.NewInt(100_000000),
		TokenOut:      common.Address{},
		AmountOut:     amountOut,
		Recipient:     common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		FillDeadline:  big.NewInt(1_900_000_000),
		SourceChainId: big.NewInt(421614),
	}
}

func TestDerivedSolverAddress(t *testing.T) {
	filler := newTestStacksFiller(t)

	assert.Equal(t, "ST", filler.Address()[:2])
	version, hash160, err := stacks.DecodeAddress(filler.Address())
	require.NoError(t, err)
	assert.Equal(t, byte(stacks.VersionTestnetP2PKH), version)
	assert.Equal(t, stacks.Hash160(crypto.CompressPubkey(&filler.key.PublicKey)), hash160)
}

func TestBuildFillCallNative(t *testing.T) {
	filler := newTestStacksFiller(t)
	view := nativeOrderView()

	call, err := filler.buildFillCall(big.NewInt(7), view, convert.KindNative, 5_000000, 3)
	require.NoError(t, err)

	assert.Equal(t, "fill-native", call.FunctionName)
	assert.Equal(t, "fill-gate", call.ContractName)
	assert.Equal(t, uint64(10000), call.Fee)
	assert.Equal(t, uint64(3), call.Nonce)
	require.Len(t, call.Args, 6)

	require.Len(t, call.PostConditions, 1)
	pc, ok := call.PostConditions[0].(stacks.STXPostCondition)
	require.True(t, ok)
	assert.Equal(t, filler.Address(), pc.Principal)
	assert.Equal(t, byte(stacks.ConditionSentLte), pc.Code)
	assert.Equal(t, uint64(5_000000), pc.Amount)

	// The call must sign and serialize cleanly.
	raw, err := call.Sign(filler.key)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestBuildFillCallPegged(t *testing.T) {
	filler := newTestStacksFiller(t)
	view := nativeOrderView()
	view.TokenOut = common.HexToAddress("0x1CE9B6AD51BA9DC9Cd20c4bD02c06F7A9CfBc9A6")
	view.AmountOut = big.NewInt(250000)

	call, err := filler.buildFillCall(big.NewInt(7), view, convert.KindPegged, 250000, 4)
	require.NoError(t, err)

	assert.Equal(t, "fill-token", call.FunctionName)
	require.Len(t, call.Args, 7, "pegged fills carry the token contract principal")

	orderArg, ok := call.Args[0].(stacks.UintCV)
	require.True(t, ok)
	assert.Equal(t, "7", orderArg.Value.String())

	tokenArg, ok := call.Args[1].(stacks.PrincipalCV)
	require.True(t, ok, "the token trait reference goes right after the order ID")
	assert.Equal(t, filler.dest.SBTCContract, tokenArg.Address+"."+tokenArg.ContractName)

	amountArg, ok := call.Args[2].(stacks.UintCV)
	require.True(t, ok)
	assert.Equal(t, "250000", amountArg.Value.String())

	require.Len(t, call.PostConditions, 1)
	pc, ok := call.PostConditions[0].(stacks.FungiblePostCondition)
	require.True(t, ok)
	assert.Equal(t, filler.dest.SBTCContract, pc.AssetContract)
	assert.Equal(t, "sbtc-token", pc.AssetName)
	assert.Equal(t, uint64(250000), pc.Amount)

	raw, err := call.Sign(filler.key)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestBuildFillCallPeggedRequiresTokenContract(t *testing.T) {
	filler := newTestStacksFiller(t)
	filler.dest.SBTCContract = ""

	_, err := filler.buildFillCall(big.NewInt(7), nativeOrderView(), convert.KindPegged, 250000, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STACKS_SBTC_CONTRACT")
}

func TestNewStacksFillerRejectsBadConfig(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			SolverStacksPrivateKey: "1111111111111111111111111111111111111111111111111111111111111111",
			SolverEVMAddress:       "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
			StacksRecipient:        testAddr(t, 0x01),
			StacksDest: config.StacksDestination{
				Network:          "testnet",
				FillGateContract: testAddr(t, 0x02) + ".fill-gate",
			},
		}
	}

	cfg := base()
	cfg.StacksDest.Network = "regtest"
	_, err := NewStacksFiller(nil, cfg, logrus.New())
	assert.Error(t, err)

	cfg = base()
	cfg.SolverStacksPrivateKey = "zz"
	_, err = NewStacksFiller(nil, cfg, logrus.New())
	assert.Error(t, err)

	cfg = base()
	cfg.StacksDest.FillGateContract = "garbage.fill-gate"
	_, err = NewStacksFiller(nil, cfg, logrus.New())
	assert.Error(t, err)

	cfg = base()
	cfg.StacksRecipient = "garbage"
	_, err = NewStacksFiller(nil, cfg, logrus.New())
	assert.Error(t, err)
}

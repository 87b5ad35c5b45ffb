package gates

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusSentinelEncoding(t *testing.T) {
	// Right-padded ASCII, bit-exact with the contracts.
	tests := map[string][32]byte{
		"0x4f50454e45440000000000000000000000000000000000000000000000000000": StatusOpened,
		"0x46494c4c45440000000000000000000000000000000000000000000000000000": StatusFilled,
		"0x534554544c454400000000000000000000000000000000000000000000000000": StatusSettled,
		"0x524546554e444544000000000000000000000000000000000000000000000000": StatusRefunded,
	}
	for wantHex, sentinel := range tests {
		assert.Equal(t, wantHex, common.BytesToHash(sentinel[:]).Hex())
	}
}

func TestStatusLabelRoundtrip(t *testing.T) {
	for _, label := range []string{"OPENED", "FILLED", "SETTLED", "REFUNDED"} {
		assert.Equal(t, label, StatusLabel(StatusSentinel(label)))
	}
	assert.Equal(t, "", StatusLabel(StatusUnknown))
}

func TestABIsDeclareExpectedEntries(t *testing.T) {
	for _, name := range []string{"open", "settle", "orders", "orderStatus"} {
		_, ok := openGateABI.Methods[name]
		require.True(t, ok, "open gate missing %s", name)
	}
	_, ok := openGateABI.Events["OrderOpened"]
	require.True(t, ok)

	for _, name := range []string{"fill", "orderStatus"} {
		_, ok := fillGateABI.Methods[name]
		require.True(t, ok, "fill gate missing %s", name)
	}
	_, ok = fillGateABI.Events["OrderFilled"]
	require.True(t, ok)

	for _, name := range []string{"approve", "allowance", "balanceOf", "decimals", "symbol"} {
		_, ok := erc20ABI.Methods[name]
		require.True(t, ok, "erc20 missing %s", name)
	}
}

func TestEventTopicsAreStable(t *testing.T) {
	// The event signatures are part of the deployed contract surface; a
	// silent ABI edit here would desync every listener.
	assert.Equal(t,
		crypto.Keccak256Hash([]byte("OrderOpened(uint256,address,address,uint256,address,uint256,address,uint256,uint256)")),
		openGateABI.Events["OrderOpened"].ID)
	assert.Equal(t,
		crypto.Keccak256Hash([]byte("OrderFilled(uint256,address,address,uint256,address,address,uint256,uint256)")),
		fillGateABI.Events["OrderFilled"].ID)
}

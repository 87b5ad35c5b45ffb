package stacks

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintCVSerialization(t *testing.T) {
	raw, err := NewUintCV(big.NewInt(5000000)).Serialize()
	require.NoError(t, err)

	require.Len(t, raw, 17)
	assert.Equal(t, byte(clarityTypeUint), raw[0])
	// 5000000 = 0x4c4b40, big-endian in the low bytes.
	assert.Equal(t, []byte{0x4c, 0x4b, 0x40}, raw[14:])
	for _, b := range raw[1:14] {
		assert.Equal(t, byte(0), b)
	}
}

func TestUintCVRejectsOutOfRange(t *testing.T) {
	_, err := (UintCV{Value: big.NewInt(-1)}).Serialize()
	assert.Error(t, err)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	_, err = (UintCV{Value: tooBig}).Serialize()
	assert.Error(t, err)

	// 2^128 - 1 is the largest clarity uint.
	max := new(big.Int).Sub(tooBig, big.NewInt(1))
	raw, err := (UintCV{Value: max}).Serialize()
	require.NoError(t, err)
	assert.Len(t, raw, 17)
}

func TestPrincipalCVSerialization(t *testing.T) {
	var hash160 [20]byte
	hash160[19] = 0x09
	addr := EncodeAddress(VersionTestnetP2PKH, hash160)

	t.Run("standard", func(t *testing.T) {
		raw, err := NewPrincipalCV(addr).Serialize()
		require.NoError(t, err)

		require.Len(t, raw, 22)
		assert.Equal(t, byte(clarityTypeStandardPrincipal), raw[0])
		assert.Equal(t, byte(VersionTestnetP2PKH), raw[1])
		assert.Equal(t, hash160[:], raw[2:])
	})

	t.Run("contract", func(t *testing.T) {
		raw, err := NewPrincipalCV(addr + ".fill-gate").Serialize()
		require.NoError(t, err)

		require.Len(t, raw, 22+1+len("fill-gate"))
		assert.Equal(t, byte(clarityTypeContractPrincipal), raw[0])
		assert.Equal(t, byte(VersionTestnetP2PKH), raw[1])
		assert.Equal(t, hash160[:], raw[2:22])
		assert.Equal(t, byte(len("fill-gate")), raw[22])
		assert.Equal(t, "fill-gate", string(raw[23:]))
	})

	t.Run("bad address", func(t *testing.T) {
		_, err := NewPrincipalCV("garbage").Serialize()
		assert.Error(t, err)
	})
}

func TestStringASCIICVSerialization(t *testing.T) {
	raw, err := (StringASCIICV{Value: "STX"}).Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{clarityTypeStringASCII, 0, 0, 0, 3, 'S', 'T', 'X'}, raw)

	_, err = (StringASCIICV{Value: "st\xc3\xa4x"}).Serialize()
	assert.Error(t, err)
}

func TestBufferAndBoolCVSerialization(t *testing.T) {
	raw, err := (BufferCV{Value: []byte{0xde, 0xad}}).Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{clarityTypeBuffer, 0, 0, 0, 2, 0xde, 0xad}, raw)

	raw, err = (BoolCV{Value: true}).Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{clarityTypeBoolTrue}, raw)

	raw, err = (BoolCV{Value: false}).Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{clarityTypeBoolFalse}, raw)
}

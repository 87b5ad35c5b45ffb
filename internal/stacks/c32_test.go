package stacks

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestC32Roundtrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"single byte", []byte{0x42}},
		{"leading zero byte", []byte{0x00, 0x01}},
		{"two leading zero bytes", []byte{0x00, 0x00, 0xff, 0x10}},
		{"all zeros", bytes.Repeat([]byte{0x00}, 20)},
		{"hash160 sized", []byte{
			0xa4, 0x6f, 0xf8, 0x88, 0x86, 0xc2, 0xef, 0x9c, 0x57, 0xd5,
			0x3b, 0x10, 0x00, 0xf7, 0x1b, 0xc7, 0x1c, 0x07, 0xcf, 0x6c,
		}},
		{"payload sized", bytes.Repeat([]byte{0xab, 0x00, 0xcd}, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := c32Encode(tt.data)
			decoded, err := c32Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decoded)
		})
	}
}

func TestC32DecodeNormalizesMisreadCharacters(t *testing.T) {
	reference, err := c32Decode("10")
	require.NoError(t, err)

	for _, variant := range []string{"1O", "LO", "IO", "lo", "io"} {
		got, err := c32Decode(variant)
		require.NoError(t, err)
		assert.Equal(t, reference, got, "variant %q", variant)
	}
}

func TestC32DecodeRejectsInvalidCharacters(t *testing.T) {
	_, err := c32Decode("AB*CD")
	assert.Error(t, err)

	// U is not part of the alphabet and has no normalization.
	_, err = c32Decode("AU")
	assert.Error(t, err)
}

func TestAddressRoundtrip(t *testing.T) {
	var hash160 [20]byte
	copy(hash160[:], []byte{
		0xa4, 0x6f, 0xf8, 0x88, 0x86, 0xc2, 0xef, 0x9c, 0x57, 0xd5,
		0x3b, 0x10, 0x00, 0xf7, 0x1b, 0xc7, 0x1c, 0x07, 0xcf, 0x6c,
	})

	for _, version := range []byte{VersionMainnetP2PKH, VersionTestnetP2PKH} {
		addr := EncodeAddress(version, hash160)

		gotVersion, gotHash, err := DecodeAddress(addr)
		require.NoError(t, err)
		assert.Equal(t, version, gotVersion)
		assert.Equal(t, hash160, gotHash)
	}
}

func TestAddressPrefixes(t *testing.T) {
	var hash160 [20]byte

	mainnet := EncodeAddress(VersionMainnetP2PKH, hash160)
	assert.Equal(t, "SP", mainnet[:2])

	testnet := EncodeAddress(VersionTestnetP2PKH, hash160)
	assert.Equal(t, "ST", testnet[:2])
}

func TestDecodeAddressRejectsCorruption(t *testing.T) {
	var hash160 [20]byte
	hash160[0] = 0x7f
	addr := EncodeAddress(VersionTestnetP2PKH, hash160)

	// Flip one payload character to another alphabet character.
	corrupted := []byte(addr)
	if corrupted[10] == 'A' {
		corrupted[10] = 'B'
	} else {
		corrupted[10] = 'A'
	}
	_, _, err := DecodeAddress(string(corrupted))
	assert.Error(t, err)

	_, _, err = DecodeAddress("not-an-address")
	assert.Error(t, err)

	_, _, err = DecodeAddress("")
	assert.Error(t, err)
}

// Package stacks implements the slice of the Stacks blockchain the solver
// needs: c32check addresses, Clarity value serialization, single-signature
// contract-call transactions, the node/indexer HTTP API, and decoding of
// contract print events.
package stacks

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// c32Alphabet is the Crockford base32 alphabet (no I, L, O, U).
const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Address version bytes for single-signature (P2PKH-style) accounts.
const (
	VersionMainnetP2PKH = 22 // addresses starting SP
	VersionTestnetP2PKH = 26 // addresses starting ST
)

// c32Encode encodes data in Crockford base32. Leading zero bytes are
// preserved as leading '0' characters, matching the reference c32check
// implementation.
func c32Encode(data []byte) string {
	var sb strings.Builder

	// Walk the input from the end in 5-bit groups.
	var (
		out      []byte
		carry    uint
		carryLen uint
	)
	for i := len(data) - 1; i >= 0; i-- {
		carry |= uint(data[i]) << carryLen
		carryLen += 8
		for carryLen >= 5 {
			out = append(out, c32Alphabet[carry&0x1f])
			carry >>= 5
			carryLen -= 5
		}
	}
	if carryLen > 0 {
		out = append(out, c32Alphabet[carry&0x1f])
	}

	// out is little-endian; reverse and strip the leading zeros the bit
	// grouping produced. Zero bytes of the input are restored below as
	// explicit '0' characters.
	start := len(out) - 1
	for start >= 0 && out[start] == '0' {
		start--
	}
	for i := start; i >= 0; i-- {
		sb.WriteByte(out[i])
	}

	encoded := sb.String()
	for _, b := range data {
		if b != 0 {
			break
		}
		encoded = "0" + encoded
	}
	return encoded
}

// c32Decode reverses c32Encode. Lowercase input and the common misreads
// (O for 0, L and I for 1) are normalized first.
func c32Decode(s string) ([]byte, error) {
	normalized := strings.ToUpper(s)
	normalized = strings.NewReplacer("O", "0", "L", "1", "I", "1").Replace(normalized)

	var (
		out      []byte
		carry    uint
		carryLen uint
	)
	for i := len(normalized) - 1; i >= 0; i-- {
		v := strings.IndexByte(c32Alphabet, normalized[i])
		if v < 0 {
			return nil, fmt.Errorf("invalid c32 character %q", s[i])
		}
		carry |= uint(v) << carryLen
		carryLen += 5
		for carryLen >= 8 {
			out = append(out, byte(carry&0xff))
			carry >>= 8
			carryLen -= 8
		}
	}
	if carryLen > 0 && carry != 0 {
		out = append(out, byte(carry&0xff))
	}

	// out is little-endian; reverse and strip zeros introduced by bit
	// grouping, then restore the zeros encoded as leading '0' characters.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	start := 0
	for start < len(out)-1 && out[start] == 0 {
		start++
	}
	out = out[start:]

	leading := 0
	for leading < len(normalized) && normalized[leading] == '0' {
		leading++
	}
	decoded := make([]byte, 0, leading+len(out))
	for i := 0; i < leading; i++ {
		decoded = append(decoded, 0)
	}
	// A single '0' input decodes to a single zero byte, already appended.
	if len(out) == 1 && out[0] == 0 && leading > 0 {
		return decoded, nil
	}
	return append(decoded, out...), nil
}

func addressChecksum(version byte, hash160 [20]byte) []byte {
	first := sha256.Sum256(append([]byte{version}, hash160[:]...))
	second := sha256.Sum256(first[:])
	return second[:4]
}

// EncodeAddress renders a c32check address ("S" + version character +
// base32(hash160 || checksum)) from its version byte and hash160.
func EncodeAddress(version byte, hash160 [20]byte) string {
	payload := append(hash160[:], addressChecksum(version, hash160)...)
	return "S" + string(c32Alphabet[version]) + c32Encode(payload)
}

// DecodeAddress parses a c32check address and verifies its checksum.
func DecodeAddress(addr string) (version byte, hash160 [20]byte, err error) {
	if len(addr) < 7 || addr[0] != 'S' {
		return 0, hash160, fmt.Errorf("invalid stacks address %q", addr)
	}
	v := strings.IndexByte(c32Alphabet, addr[1])
	if v < 0 {
		return 0, hash160, fmt.Errorf("invalid stacks address version character %q", addr[1])
	}
	version = byte(v)

	payload, err := c32Decode(addr[2:])
	if err != nil {
		return 0, hash160, fmt.Errorf("invalid stacks address %q: %w", addr, err)
	}
	if len(payload) != 24 {
		return 0, hash160, fmt.Errorf("invalid stacks address %q: payload is %d bytes", addr, len(payload))
	}
	copy(hash160[:], payload[:20])

	want := addressChecksum(version, hash160)
	got := payload[20:]
	for i := range want {
		if want[i] != got[i] {
			return 0, hash160, fmt.Errorf("invalid stacks address %q: checksum mismatch", addr)
		}
	}
	return version, hash160, nil
}

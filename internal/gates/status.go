package gates

import "strings"

// The gate contracts report order status as a bytes32 holding the ASCII
// status label, right-padded with zero bytes. These must stay bit-exact with
// the deployed contracts.
var (
	StatusOpened   = StatusSentinel("OPENED")
	StatusFilled   = StatusSentinel("FILLED")
	StatusSettled  = StatusSentinel("SETTLED")
	StatusRefunded = StatusSentinel("REFUNDED")
	StatusUnknown  = [32]byte{}
)

// StatusSentinel encodes a status label as its on-chain bytes32 form.
func StatusSentinel(label string) [32]byte {
	var out [32]byte
	copy(out[:], label)
	return out
}

// StatusLabel decodes an on-chain status sentinel back to its label, trimming
// the zero padding. The all-zero sentinel (unknown order) decodes to "".
func StatusLabel(status [32]byte) string {
	return strings.TrimRight(string(status[:]), "\x00")
}

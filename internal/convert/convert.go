// Package convert translates order amounts between the origin chain's token
// units and the destination chain's units.
//
// The bridge supports two token kinds on the destination:
//
//   - the native asset (STX), quoted on the origin side in 18-decimal wei-style
//     units and paid out in 6-decimal micro-units
//   - the pegged BTC asset (sBTC), which uses 8 decimals on both sides and
//     passes through unchanged
//
// Orders signal "native" with the zero address in tokenOut; any other address
// is treated as the pegged asset.
package convert

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// OriginNativeDecimals is the precision of native amounts quoted on the
	// origin chain.
	OriginNativeDecimals = 18
	// DestNativeDecimals is the precision of STX (micro-STX).
	DestNativeDecimals = 6
	// PeggedDecimals is the precision of sBTC on both sides (satoshis).
	PeggedDecimals = 8

	// NativeSymbol and PeggedSymbol are the destination-side asset symbols
	// derived from the order's token kind.
	NativeSymbol = "STX"
	PeggedSymbol = "sBTC"
)

// nativeScale is 10^(OriginNativeDecimals-DestNativeDecimals).
var nativeScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(OriginNativeDecimals-DestNativeDecimals), nil)

// Kind classifies the destination asset an order pays out in.
type Kind int

const (
	KindNative Kind = iota
	KindPegged
)

func (k Kind) String() string {
	if k == KindNative {
		return NativeSymbol
	}
	return PeggedSymbol
}

// KindOf classifies tokenOut: the zero address means the native asset,
// anything else the pegged asset.
func KindOf(tokenOut common.Address) Kind {
	if tokenOut == (common.Address{}) {
		return KindNative
	}
	return KindPegged
}

// KindOfHex is KindOf for addresses carried as hex strings.
func KindOfHex(tokenOut string) Kind {
	return KindOf(common.HexToAddress(tokenOut))
}

// ToDestinationAmount converts an origin-side amount to destination units.
// Native amounts are floor-divided by 10^12 (18 -> 6 decimals); sub-micro
// remainders are discarded. Pegged amounts pass through unchanged. The input
// is never mutated and a zero amount converts to zero.
func ToDestinationAmount(amount *big.Int, kind Kind) *big.Int {
	if kind == KindPegged {
		return new(big.Int).Set(amount)
	}
	return new(big.Int).Quo(amount, nativeScale)
}

// ExpectedDestinationAmount returns the exact destination-side amount a fill
// must carry for an order with the given tokenOut and amountOut. Validators
// reject any deviation, in either direction.
func ExpectedDestinationAmount(tokenOut string, amountOut *big.Int) *big.Int {
	return ToDestinationAmount(amountOut, KindOfHex(tokenOut))
}

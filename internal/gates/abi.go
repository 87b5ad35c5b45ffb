// Package gates wraps the two bridge contracts on EVM chains: the OpenGate,
// where users escrow deposits and open orders on the origin chain, and the
// FillGate, where solvers pay recipients on an EVM destination chain. The
// ABIs are declared inline; the contracts are small enough that generated
// bindings would be noise.
package gates

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const openGateABIJSON = `[
	{"type":"function","name":"open","stateMutability":"payable","inputs":[
		{"name":"tokenIn","type":"address"},
		{"name":"amountIn","type":"uint256"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountOut","type":"uint256"},
		{"name":"recipient","type":"address"},
		{"name":"fillDeadline","type":"uint256"},
		{"name":"sourceChainId","type":"uint256"}],
	 "outputs":[{"name":"orderId","type":"uint256"}]},
	{"type":"function","name":"settle","stateMutability":"nonpayable","inputs":[
		{"name":"orderId","type":"uint256"},
		{"name":"solverRecipient","type":"address"}],
	 "outputs":[]},
	{"type":"function","name":"orders","stateMutability":"view","inputs":[
		{"name":"orderId","type":"uint256"}],
	 "outputs":[
		{"name":"sender","type":"address"},
		{"name":"tokenIn","type":"address"},
		{"name":"amountIn","type":"uint256"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountOut","type":"uint256"},
		{"name":"recipient","type":"address"},
		{"name":"fillDeadline","type":"uint256"},
		{"name":"sourceChainId","type":"uint256"}]},
	{"type":"function","name":"orderStatus","stateMutability":"view","inputs":[
		{"name":"orderId","type":"uint256"}],
	 "outputs":[{"name":"status","type":"bytes32"}]},
	{"type":"event","name":"OrderOpened","inputs":[
		{"name":"orderId","type":"uint256","indexed":true},
		{"name":"sender","type":"address","indexed":true},
		{"name":"tokenIn","type":"address","indexed":true},
		{"name":"amountIn","type":"uint256","indexed":false},
		{"name":"tokenOut","type":"address","indexed":false},
		{"name":"amountOut","type":"uint256","indexed":false},
		{"name":"recipient","type":"address","indexed":false},
		{"name":"fillDeadline","type":"uint256","indexed":false},
		{"name":"sourceChainId","type":"uint256","indexed":false}]}
]`

const fillGateABIJSON = `[
	{"type":"function","name":"fill","stateMutability":"payable","inputs":[
		{"name":"orderId","type":"uint256"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountOut","type":"uint256"},
		{"name":"recipient","type":"address"},
		{"name":"solverOriginAddress","type":"address"},
		{"name":"fillDeadline","type":"uint256"},
		{"name":"sourceChainId","type":"uint256"}],
	 "outputs":[]},
	{"type":"function","name":"orderStatus","stateMutability":"view","inputs":[
		{"name":"orderId","type":"uint256"}],
	 "outputs":[{"name":"status","type":"bytes32"}]},
	{"type":"event","name":"OrderFilled","inputs":[
		{"name":"orderId","type":"uint256","indexed":true},
		{"name":"solver","type":"address","indexed":true},
		{"name":"tokenOut","type":"address","indexed":false},
		{"name":"amountOut","type":"uint256","indexed":false},
		{"name":"recipient","type":"address","indexed":false},
		{"name":"solverOriginAddress","type":"address","indexed":false},
		{"name":"fillDeadline","type":"uint256","indexed":false},
		{"name":"sourceChainId","type":"uint256","indexed":false}]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
		{"name":"spender","type":"address"},
		{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[
		{"name":"owner","type":"address"},
		{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}],
	 "outputs":[]}
]`

var (
	openGateABI = mustParseABI(openGateABIJSON)
	fillGateABI = mustParseABI(fillGateABIJSON)
	erc20ABI    = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

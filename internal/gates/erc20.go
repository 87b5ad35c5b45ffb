package gates

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ERC20 is a minimal binding for the solver's pre-fill checks and approvals.
type ERC20 struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewERC20 binds the token at the given address.
func NewERC20(address common.Address, client *ethclient.Client) *ERC20 {
	return &ERC20{
		address:  address,
		contract: bind.NewBoundContract(address, erc20ABI, client, client, client),
	}
}

// Address returns the token contract address.
func (t *ERC20) Address() common.Address { return t.address }

// BalanceOf reads the token balance of account.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("balanceOf(%s) call failed: %w", account, err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Allowance reads the remaining allowance from owner to spender.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("allowance call failed: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Approve submits approve(spender, amount).
func (t *ERC20) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "approve", spender, amount)
}

// Decimals reads the token's decimal precision.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("decimals call failed: %w", err)
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Symbol reads the token's symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "symbol"); err != nil {
		return "", fmt.Errorf("symbol call failed: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Package config loads the keeper and solver configuration from the
// environment (with .env support) and builds the per-chain client registry
// both binaries share.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SourceChain is one EVM origin chain carrying an OpenGate deployment.
type SourceChain struct {
	Name     string
	ChainID  uint64
	RPCURL   string
	OpenGate common.Address
}

// EVMDestination is the EVM variant of the destination chain.
type EVMDestination struct {
	Name      string
	ChainID   uint64
	RPCURL    string
	FillGate  common.Address
	SBTCToken common.Address
}

// StacksDestination is the Stacks variant of the destination chain. Contracts
// are addressed as "DEPLOYER.contract-name" principals.
type StacksDestination struct {
	Name             string
	Network          string // "testnet" or "mainnet"
	APIURL           string
	FillGateContract string
	SBTCContract     string
	SBTCAssetName    string
	FillFee          uint64 // micro-STX fee attached to fill transactions
}

// Config is everything the keeper and solver read from the environment.
type Config struct {
	LogLevel  string
	LogFormat string

	// DestinationType selects which destination listener and filler run:
	// "stacks" (production path) or "evm" (test path).
	DestinationType string

	DatabaseType string // "memory" or "sqlite"
	DatabasePath string

	OraclePrivateKey string

	SolverEVMPrivateKey    string
	SolverEVMAddress       string // origin-side address settlement pays the solver at
	SolverStacksPrivateKey string
	StacksRecipient        string // destination principal stacks fills pay out to

	AutoFill  bool
	FillDelay time.Duration

	StacksPollInterval time.Duration
	ReconnectDelay     time.Duration

	SourceChains []SourceChain
	EVMDest      EVMDestination
	StacksDest   StacksDestination
}

// Load reads .env (if present) and the environment. Missing credentials are
// not an error here; the keeper and solver validate what they each need.
func Load() (*Config, error) {
	// .env is optional, real deployments use the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "clean")
	v.SetDefault("DESTINATION_TYPE", "stacks")
	v.SetDefault("DATABASE_TYPE", "memory")
	v.SetDefault("DATABASE_PATH", "orders.db")

	v.SetDefault("AUTO_FILL", true)
	v.SetDefault("FILL_DELAY_MS", 0)
	v.SetDefault("STACKS_POLL_INTERVAL_MS", 10000)
	v.SetDefault("RECONNECT_DELAY_MS", 5000)

	v.SetDefault("ARBITRUM_RPC_URL", "ws://localhost:8547")
	v.SetDefault("ARBITRUM_CHAIN_ID", 421614)
	v.SetDefault("ARBITRUM_OPENGATE_ADDRESS", "")

	v.SetDefault("BASE_RPC_URL", "ws://localhost:8548")
	v.SetDefault("BASE_CHAIN_ID", 84532)
	v.SetDefault("BASE_OPENGATE_ADDRESS", "")

	v.SetDefault("DEST_EVM_RPC_URL", "ws://localhost:8549")
	v.SetDefault("DEST_EVM_CHAIN_ID", 11155111)
	v.SetDefault("DEST_EVM_FILLGATE_ADDRESS", "")
	v.SetDefault("DEST_EVM_SBTC_ADDRESS", "")

	v.SetDefault("STACKS_NETWORK", "testnet")
	v.SetDefault("STACKS_API_URL", "https://api.testnet.hiro.so")
	v.SetDefault("STACKS_FILLGATE_CONTRACT", "")
	v.SetDefault("STACKS_SBTC_CONTRACT", "")
	v.SetDefault("STACKS_SBTC_ASSET_NAME", "sbtc-token")
	v.SetDefault("STACKS_FILL_FEE", 10000)

	cfg := &Config{
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		DestinationType: strings.ToLower(v.GetString("DESTINATION_TYPE")),
		DatabaseType:    strings.ToLower(v.GetString("DATABASE_TYPE")),
		DatabasePath:    v.GetString("DATABASE_PATH"),

		OraclePrivateKey: v.GetString("ORACLE_PRIVATE_KEY"),

		SolverEVMPrivateKey:    v.GetString("SOLVER_EVM_PRIVATE_KEY"),
		SolverEVMAddress:       v.GetString("SOLVER_EVM_ADDRESS"),
		SolverStacksPrivateKey: v.GetString("SOLVER_STACKS_PRIVATE_KEY"),
		StacksRecipient:        v.GetString("STACKS_RECIPIENT_ADDRESS"),

		AutoFill:  v.GetBool("AUTO_FILL"),
		FillDelay: time.Duration(v.GetInt("FILL_DELAY_MS")) * time.Millisecond,

		StacksPollInterval: time.Duration(v.GetInt("STACKS_POLL_INTERVAL_MS")) * time.Millisecond,
		ReconnectDelay:     time.Duration(v.GetInt("RECONNECT_DELAY_MS")) * time.Millisecond,

		EVMDest: EVMDestination{
			Name:      "EVM Destination",
			ChainID:   v.GetUint64("DEST_EVM_CHAIN_ID"),
			RPCURL:    v.GetString("DEST_EVM_RPC_URL"),
			FillGate:  common.HexToAddress(v.GetString("DEST_EVM_FILLGATE_ADDRESS")),
			SBTCToken: common.HexToAddress(v.GetString("DEST_EVM_SBTC_ADDRESS")),
		},
		StacksDest: StacksDestination{
			Name:             "Stacks",
			Network:          strings.ToLower(v.GetString("STACKS_NETWORK")),
			APIURL:           v.GetString("STACKS_API_URL"),
			FillGateContract: v.GetString("STACKS_FILLGATE_CONTRACT"),
			SBTCContract:     v.GetString("STACKS_SBTC_CONTRACT"),
			SBTCAssetName:    v.GetString("STACKS_SBTC_ASSET_NAME"),
			FillFee:          v.GetUint64("STACKS_FILL_FEE"),
		},
	}

	// A source chain is active when its OpenGate address is configured.
	candidates := []struct {
		name       string
		chainID    uint64
		rpcKey     string
		gateKey    string
	}{
		{"Arbitrum Sepolia", v.GetUint64("ARBITRUM_CHAIN_ID"), "ARBITRUM_RPC_URL", "ARBITRUM_OPENGATE_ADDRESS"},
		{"Base Sepolia", v.GetUint64("BASE_CHAIN_ID"), "BASE_RPC_URL", "BASE_OPENGATE_ADDRESS"},
	}
	for _, c := range candidates {
		gate := v.GetString(c.gateKey)
		if gate == "" {
			continue
		}
		if !common.IsHexAddress(gate) {
			return nil, fmt.Errorf("%s is not a valid address: %q", c.gateKey, gate)
		}
		cfg.SourceChains = append(cfg.SourceChains, SourceChain{
			Name:     c.name,
			ChainID:  c.chainID,
			RPCURL:   v.GetString(c.rpcKey),
			OpenGate: common.HexToAddress(gate),
		})
	}

	if cfg.DestinationType != "evm" && cfg.DestinationType != "stacks" {
		return nil, fmt.Errorf("DESTINATION_TYPE must be evm or stacks, got %q", cfg.DestinationType)
	}
	if cfg.DatabaseType != "memory" && cfg.DatabaseType != "sqlite" {
		return nil, fmt.Errorf("DATABASE_TYPE must be memory or sqlite, got %q", cfg.DatabaseType)
	}

	return cfg, nil
}

// ValidateKeeper checks the configuration the keeper cannot run without.
func (c *Config) ValidateKeeper() error {
	if len(c.SourceChains) == 0 {
		return fmt.Errorf("no source chains configured: set ARBITRUM_OPENGATE_ADDRESS or BASE_OPENGATE_ADDRESS")
	}
	if c.OraclePrivateKey == "" {
		return fmt.Errorf("ORACLE_PRIVATE_KEY is required")
	}
	switch c.DestinationType {
	case "stacks":
		if c.StacksDest.FillGateContract == "" {
			return fmt.Errorf("STACKS_FILLGATE_CONTRACT is required for the stacks destination")
		}
	case "evm":
		if c.EVMDest.FillGate == (common.Address{}) {
			return fmt.Errorf("DEST_EVM_FILLGATE_ADDRESS is required for the evm destination")
		}
	}
	return nil
}

// ValidateSolver checks the configuration the solver cannot run without.
func (c *Config) ValidateSolver() error {
	if len(c.SourceChains) == 0 {
		return fmt.Errorf("no source chains configured: set ARBITRUM_OPENGATE_ADDRESS or BASE_OPENGATE_ADDRESS")
	}
	switch c.DestinationType {
	case "stacks":
		if c.SolverStacksPrivateKey == "" {
			return fmt.Errorf("SOLVER_STACKS_PRIVATE_KEY is required for the stacks destination")
		}
		if c.SolverEVMAddress == "" {
			return fmt.Errorf("SOLVER_EVM_ADDRESS is required: settlement pays the solver there")
		}
		if c.StacksRecipient == "" {
			return fmt.Errorf("STACKS_RECIPIENT_ADDRESS is required for the stacks destination")
		}
		if c.StacksDest.FillGateContract == "" {
			return fmt.Errorf("STACKS_FILLGATE_CONTRACT is required for the stacks destination")
		}
	case "evm":
		if c.SolverEVMPrivateKey == "" {
			return fmt.Errorf("SOLVER_EVM_PRIVATE_KEY is required for the evm destination")
		}
		if c.EVMDest.FillGate == (common.Address{}) {
			return fmt.Errorf("DEST_EVM_FILLGATE_ADDRESS is required for the evm destination")
		}
	}
	return nil
}

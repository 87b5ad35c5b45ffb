package stacks

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"
)

// Network selects the transaction version, chain ID and address version.
type Network int

const (
	Testnet Network = iota
	Mainnet
)

// ParseNetwork maps the configuration string ("testnet"/"mainnet") to a
// Network.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(name) {
	case "testnet":
		return Testnet, nil
	case "mainnet":
		return Mainnet, nil
	default:
		return 0, fmt.Errorf("unknown stacks network %q", name)
	}
}

func (n Network) txVersion() byte {
	if n == Mainnet {
		return 0x00
	}
	return 0x80
}

func (n Network) chainID() uint32 {
	if n == Mainnet {
		return 0x00000001
	}
	return 0x80000000
}

// AddressVersion returns the single-signature address version byte.
func (n Network) AddressVersion() byte {
	if n == Mainnet {
		return VersionMainnetP2PKH
	}
	return VersionTestnetP2PKH
}

// Wire constants, per SIP-005.
const (
	authTypeStandard      = 0x04
	hashModeP2PKH         = 0x00
	keyEncodingCompressed = 0x00
	anchorModeAny         = 0x03
	payloadContractCall   = 0x02

	postConditionTypeSTX      = 0x00
	postConditionTypeFungible = 0x01

	pcPrincipalStandard = 0x02
	pcPrincipalContract = 0x03
)

// PostConditionModeDeny aborts the transaction if any asset movement is not
// covered by a post-condition. Every transaction this package builds uses
// deny mode.
const PostConditionModeDeny = 0x02

// Fungible condition codes.
const (
	ConditionSentEq  = 0x01
	ConditionSentGt  = 0x02
	ConditionSentGte = 0x03
	ConditionSentLt  = 0x04
	ConditionSentLte = 0x05
)

// PostCondition is one entry of a transaction's post-condition list.
type PostCondition interface {
	serializeTo(buf *bytes.Buffer) error
}

// STXPostCondition bounds the micro-STX a principal may send.
type STXPostCondition struct {
	Principal string
	Code      byte
	Amount    uint64
}

func (pc STXPostCondition) serializeTo(buf *bytes.Buffer) error {
	buf.WriteByte(postConditionTypeSTX)
	if err := writePCPrincipal(buf, pc.Principal); err != nil {
		return err
	}
	buf.WriteByte(pc.Code)
	return binary.Write(buf, binary.BigEndian, pc.Amount)
}

// FungiblePostCondition bounds the amount of a SIP-10 asset a principal may
// send.
type FungiblePostCondition struct {
	Principal     string
	AssetContract string // "ADDR.contract-name" principal of the token contract
	AssetName     string // asset identifier declared by define-fungible-token
	Code          byte
	Amount        uint64
}

func (pc FungiblePostCondition) serializeTo(buf *bytes.Buffer) error {
	buf.WriteByte(postConditionTypeFungible)
	if err := writePCPrincipal(buf, pc.Principal); err != nil {
		return err
	}

	addr, contractName, found := strings.Cut(pc.AssetContract, ".")
	if !found {
		return fmt.Errorf("asset contract %q is not an ADDR.name principal", pc.AssetContract)
	}
	version, hash160, err := DecodeAddress(addr)
	if err != nil {
		return err
	}
	buf.WriteByte(version)
	buf.Write(hash160[:])
	if err := writeShortString(buf, contractName); err != nil {
		return err
	}
	if err := writeShortString(buf, pc.AssetName); err != nil {
		return err
	}

	buf.WriteByte(pc.Code)
	return binary.Write(buf, binary.BigEndian, pc.Amount)
}

func writePCPrincipal(buf *bytes.Buffer, principal string) error {
	addr, contractName, found := strings.Cut(principal, ".")
	version, hash160, err := DecodeAddress(addr)
	if err != nil {
		return err
	}
	if found {
		buf.WriteByte(pcPrincipalContract)
		buf.WriteByte(version)
		buf.Write(hash160[:])
		return writeShortString(buf, contractName)
	}
	buf.WriteByte(pcPrincipalStandard)
	buf.WriteByte(version)
	buf.Write(hash160[:])
	return nil
}

func writeShortString(buf *bytes.Buffer, s string) error {
	if len(s) > 128 {
		return fmt.Errorf("name %q too long: %d bytes", s, len(s))
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

// ContractCall is an unsigned single-signature contract-call transaction.
type ContractCall struct {
	Network         Network
	ContractAddress string // c32check address of the contract deployer
	ContractName    string
	FunctionName    string
	Args            []ClarityValue
	PostConditions  []PostCondition
	Fee             uint64 // micro-STX
	Nonce           uint64
}

// Sign serializes and signs the call with key, returning the raw transaction
// bytes ready for broadcast.
func (c *ContractCall) Sign(key *ecdsa.PrivateKey) ([]byte, error) {
	signer := Hash160(crypto.CompressPubkey(&key.PublicKey))

	// The signature commits to the transaction with a cleared spending
	// condition (zero fee, zero nonce, zero signature), then to the real fee
	// and nonce via the presign hash.
	cleared, err := c.serialize(signer, 0, 0, [65]byte{})
	if err != nil {
		return nil, err
	}
	sighash := sha512.Sum512_256(cleared)

	presign := make([]byte, 0, 32+1+8+8)
	presign = append(presign, sighash[:]...)
	presign = append(presign, authTypeStandard)
	presign = binary.BigEndian.AppendUint64(presign, c.Fee)
	presign = binary.BigEndian.AppendUint64(presign, c.Nonce)
	presignHash := sha512.Sum512_256(presign)

	rsv, err := crypto.Sign(presignHash[:], key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	// go-ethereum emits R||S||V; the Stacks wire format wants V||R||S.
	var sig [65]byte
	sig[0] = rsv[64]
	copy(sig[1:], rsv[:64])

	return c.serialize(signer, c.Fee, c.Nonce, sig)
}

func (c *ContractCall) serialize(signer [20]byte, fee, nonce uint64, sig [65]byte) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(c.Network.txVersion())
	binary.Write(&buf, binary.BigEndian, c.Network.chainID())

	// Standard auth with a single-signature P2PKH spending condition.
	buf.WriteByte(authTypeStandard)
	buf.WriteByte(hashModeP2PKH)
	buf.Write(signer[:])
	binary.Write(&buf, binary.BigEndian, nonce)
	binary.Write(&buf, binary.BigEndian, fee)
	buf.WriteByte(keyEncodingCompressed)
	buf.Write(sig[:])

	buf.WriteByte(anchorModeAny)

	buf.WriteByte(PostConditionModeDeny)
	binary.Write(&buf, binary.BigEndian, uint32(len(c.PostConditions)))
	for _, pc := range c.PostConditions {
		if err := pc.serializeTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to serialize post-condition: %w", err)
		}
	}

	buf.WriteByte(payloadContractCall)
	version, hash160, err := DecodeAddress(c.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid contract address: %w", err)
	}
	buf.WriteByte(version)
	buf.Write(hash160[:])
	if err := writeShortString(&buf, c.ContractName); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, c.FunctionName); err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.BigEndian, uint32(len(c.Args)))
	for i, arg := range c.Args {
		raw, err := arg.Serialize()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize argument %d: %w", i, err)
		}
		buf.Write(raw)
	}

	return buf.Bytes(), nil
}

// TxID computes the transaction ID of a serialized transaction.
func TxID(raw []byte) string {
	sum := sha512.Sum512_256(raw)
	return "0x" + hex.EncodeToString(sum[:])
}

// Hash160 is ripemd160(sha256(data)), the Stacks account hash of a
// compressed public key.
func Hash160(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ParsePrivateKey decodes a hex private key. The 33-byte form with a
// trailing 0x01 compression marker, as exported by Stacks wallets, is
// accepted alongside the plain 32-byte form.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if len(cleaned) == 66 && strings.HasSuffix(cleaned, "01") {
		cleaned = cleaned[:64]
	}
	key, err := crypto.HexToECDSA(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid stacks private key: %w", err)
	}
	return key, nil
}

// AddressFromPrivateKey derives the single-signature account address for key
// on the given network.
func AddressFromPrivateKey(key *ecdsa.PrivateKey, network Network) string {
	return EncodeAddress(network.AddressVersion(), Hash160(crypto.CompressPubkey(&key.PublicKey)))
}

package stacks

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
)

// Clarity value type prefixes, per the Stacks wire format.
const (
	clarityTypeUint              = 0x01
	clarityTypeBuffer            = 0x02
	clarityTypeBoolTrue          = 0x03
	clarityTypeBoolFalse         = 0x04
	clarityTypeStandardPrincipal = 0x05
	clarityTypeContractPrincipal = 0x06
	clarityTypeStringASCII       = 0x0d
)

// ClarityValue is a serializable Clarity function argument.
type ClarityValue interface {
	Serialize() ([]byte, error)
}

// UintCV is a Clarity uint (128-bit, unsigned).
type UintCV struct {
	Value *big.Int
}

// NewUintCV wraps v. The caller keeps ownership; the value is copied.
func NewUintCV(v *big.Int) UintCV {
	return UintCV{Value: new(big.Int).Set(v)}
}

func (cv UintCV) Serialize() ([]byte, error) {
	if cv.Value == nil || cv.Value.Sign() < 0 {
		return nil, fmt.Errorf("clarity uint must be non-negative")
	}
	if cv.Value.BitLen() > 128 {
		return nil, fmt.Errorf("clarity uint overflow: %s needs %d bits", cv.Value, cv.Value.BitLen())
	}
	out := make([]byte, 17)
	out[0] = clarityTypeUint
	cv.Value.FillBytes(out[1:])
	return out, nil
}

// PrincipalCV is a standard or contract principal, parsed from its text form
// ("ST..." or "ST...contract-name").
type PrincipalCV struct {
	Address      string
	ContractName string // empty for a standard principal
}

// NewPrincipalCV parses a principal string, splitting a contract suffix off
// if present.
func NewPrincipalCV(principal string) PrincipalCV {
	if addr, name, found := strings.Cut(principal, "."); found {
		return PrincipalCV{Address: addr, ContractName: name}
	}
	return PrincipalCV{Address: principal}
}

func (cv PrincipalCV) Serialize() ([]byte, error) {
	version, hash160, err := DecodeAddress(cv.Address)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if cv.ContractName == "" {
		buf.WriteByte(clarityTypeStandardPrincipal)
		buf.WriteByte(version)
		buf.Write(hash160[:])
		return buf.Bytes(), nil
	}

	if len(cv.ContractName) > 128 {
		return nil, fmt.Errorf("contract name too long: %d bytes", len(cv.ContractName))
	}
	buf.WriteByte(clarityTypeContractPrincipal)
	buf.WriteByte(version)
	buf.Write(hash160[:])
	buf.WriteByte(byte(len(cv.ContractName)))
	buf.WriteString(cv.ContractName)
	return buf.Bytes(), nil
}

// StringASCIICV is a Clarity (string-ascii ...) value.
type StringASCIICV struct {
	Value string
}

func (cv StringASCIICV) Serialize() ([]byte, error) {
	for i := 0; i < len(cv.Value); i++ {
		if cv.Value[i] > 127 {
			return nil, fmt.Errorf("string-ascii value contains non-ASCII byte at %d", i)
		}
	}
	out := make([]byte, 0, 5+len(cv.Value))
	out = append(out, clarityTypeStringASCII)
	out = binary.BigEndian.AppendUint32(out, uint32(len(cv.Value)))
	return append(out, cv.Value...), nil
}

// BufferCV is a Clarity buffer.
type BufferCV struct {
	Value []byte
}

func (cv BufferCV) Serialize() ([]byte, error) {
	out := make([]byte, 0, 5+len(cv.Value))
	out = append(out, clarityTypeBuffer)
	out = binary.BigEndian.AppendUint32(out, uint32(len(cv.Value)))
	return append(out, cv.Value...), nil
}

// BoolCV is a Clarity bool.
type BoolCV struct {
	Value bool
}

func (cv BoolCV) Serialize() ([]byte, error) {
	if cv.Value {
		return []byte{clarityTypeBoolTrue}, nil
	}
	return []byte{clarityTypeBoolFalse}, nil
}

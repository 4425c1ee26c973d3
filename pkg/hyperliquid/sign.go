package hyperliquid

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/vmihailenco/msgpack/v5"
)

// Signature is an r/s/v triple in the wire format the exchange expects.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// Signer holds the wallet key and produces L1 action signatures.
type Signer struct {
	key *ecdsa.PrivateKey
}

func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address is the wallet address derived from the signing key.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// actionHash is keccak256 over the msgpack-encoded action, the nonce as 8
// big-endian bytes, and the optional vault address. The msgpack field order
// must match the action struct declaration order, which is why actions are
// typed structs rather than maps.
func actionHash(action any, vaultAddress string, nonce int64) ([]byte, error) {
	data, err := msgpack.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action: %w", err)
	}
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, uint64(nonce))
	data = append(data, nonceBytes...)
	if vaultAddress == "" {
		data = append(data, 0x00)
	} else {
		data = append(data, 0x01)
		data = append(data, common.HexToAddress(vaultAddress).Bytes()...)
	}
	return crypto.Keccak256(data), nil
}

// SignL1Action signs an action hash through the exchange's phantom-agent
// EIP-712 scheme: the hash becomes the agent's connectionId and the agent
// source tags mainnet ("a") vs testnet ("b").
func (s *Signer) SignL1Action(action any, vaultAddress string, nonce int64, isMainnet bool) (Signature, error) {
	hash, err := actionHash(action, vaultAddress, nonce)
	if err != nil {
		return Signature{}, err
	}

	source := "a"
	if !isMainnet {
		source = "b"
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "Exchange",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(1337),
			VerifyingContract: "0x0000000000000000000000000000000000000000",
		},
		Message: map[string]interface{}{
			"source":       source,
			"connectionId": hexutil.Encode(hash),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return Signature{}, fmt.Errorf("failed to hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte("\x19\x01")
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)
	digest := crypto.Keccak256Hash(rawData)

	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to sign action: %w", err)
	}

	return Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

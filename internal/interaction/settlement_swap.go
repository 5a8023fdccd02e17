package interaction

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// swapABIJSON describes the settlement contract's swap entry point: the maker
// order tuple plus the maker's signature over it.
const swapABIJSON = `[{
	"name": "swap",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "order", "type": "tuple", "components": [
			{"name": "tokenIn", "type": "address"},
			{"name": "amountIn", "type": "uint256"},
			{"name": "tokenOut", "type": "address"},
			{"name": "amountOut", "type": "uint256"},
			{"name": "validTo", "type": "uint256"},
			{"name": "maker", "type": "address"},
			{"name": "uid", "type": "bytes"}
		]},
		{"name": "signature", "type": "bytes"}
	],
	"outputs": []
}]`

var swapABI = mustABI(swapABIJSON)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("interaction: invalid ABI: %v", err))
	}
	return parsed
}

// SwapOrder carries the maker order fields passed to the settlement
// contract's swap call. Field names follow the ABI tuple components.
type SwapOrder struct {
	TokenIn   common.Address
	AmountIn  *big.Int
	TokenOut  common.Address
	AmountOut *big.Int
	ValidTo   *big.Int
	Maker     common.Address
	Uid       []byte
}

// SettlementSwap fills one protocol order through the settlement contract.
// The maker signature is opaque here; the contract verifies it at execution
// time. Call data is packed at construction so Encode stays total.
type SettlementSwap struct {
	contract common.Address
	callData []byte
}

// NewSettlementSwap validates the order amounts and packs the swap call. The
// signature bytes are not inspected.
func NewSettlementSwap(contract common.Address, order SwapOrder, signature []byte) (*SettlementSwap, error) {
	for name, amount := range map[string]*big.Int{
		"amountIn":  order.AmountIn,
		"amountOut": order.AmountOut,
		"validTo":   order.ValidTo,
	} {
		if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
			return nil, fmt.Errorf("interaction: swap %s out of uint256 range", name)
		}
	}
	if signature == nil {
		signature = []byte{}
	}
	if order.Uid == nil {
		order.Uid = []byte{}
	}

	callData, err := swapABI.Pack("swap", order, signature)
	if err != nil {
		return nil, fmt.Errorf("interaction: pack swap: %w", err)
	}

	return &SettlementSwap{contract: contract, callData: callData}, nil
}

func (s *SettlementSwap) Encode() []EncodedCall {
	return []EncodedCall{{Target: s.contract, Value: new(big.Int), CallData: s.callData}}
}

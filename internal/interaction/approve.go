package interaction

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[{
	"name": "approve",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "spender", "type": "address"},
		{"name": "amount", "type": "uint256"}
	],
	"outputs": [{"name": "", "type": "bool"}]
}]`

var erc20ABI = mustABI(erc20ABIJSON)

// Approve sets an ERC20 allowance on token for spender. It is composed ahead
// of a call that pulls the approved amount out of the settlement contract.
type Approve struct {
	token    common.Address
	callData []byte
}

// NewApprove packs an approve(spender, amount) call against token.
func NewApprove(token, spender common.Address, amount *big.Int) (*Approve, error) {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return nil, fmt.Errorf("interaction: approve amount out of uint256 range")
	}
	callData, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("interaction: pack approve: %w", err)
	}
	return &Approve{token: token, callData: callData}, nil
}

func (a *Approve) Encode() []EncodedCall {
	return []EncodedCall{{Target: a.token, Value: new(big.Int), CallData: a.callData}}
}

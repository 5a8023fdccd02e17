package interaction

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	testContract = common.HexToAddress("0x9008D19f58AAbD9eD0D60971565AA8510560ab41")
	testTokenIn  = common.HexToAddress("0x0000000000000000000000000000000000000010")
	testTokenOut = common.HexToAddress("0x0000000000000000000000000000000000000020")
	testMaker    = common.HexToAddress("0x0000000000000000000000000000000000000030")
)

func testOrder() SwapOrder {
	return SwapOrder{
		TokenIn:   testTokenIn,
		AmountIn:  big.NewInt(1000),
		TokenOut:  testTokenOut,
		AmountOut: big.NewInt(2000),
		ValidTo:   big.NewInt(1700000000),
		Maker:     testMaker,
		Uid:       []byte{0x01, 0x02},
	}
}

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func TestSettlementSwapEncode(t *testing.T) {
	swap, err := NewSettlementSwap(testContract, testOrder(), []byte{0xaa, 0xbb})
	if err != nil {
		t.Fatalf("NewSettlementSwap returned error: %v", err)
	}

	calls := swap.Encode()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	call := calls[0]

	if call.Target != testContract {
		t.Errorf("target = %s, want %s", call.Target, testContract)
	}
	if call.Value.Sign() != 0 {
		t.Errorf("value = %s, want 0", call.Value)
	}

	want := selector("swap((address,uint256,address,uint256,uint256,address,bytes),bytes)")
	if !bytes.Equal(call.CallData[:4], want) {
		t.Errorf("selector = %x, want %x", call.CallData[:4], want)
	}
}

func TestSettlementSwapEncodeIsDeterministic(t *testing.T) {
	swap, err := NewSettlementSwap(testContract, testOrder(), []byte{0xaa})
	if err != nil {
		t.Fatalf("NewSettlementSwap returned error: %v", err)
	}

	first := swap.Encode()[0].CallData
	second := swap.Encode()[0].CallData
	if !bytes.Equal(first, second) {
		t.Error("Encode produced different call data on repeated calls")
	}

	other, err := NewSettlementSwap(testContract, testOrder(), []byte{0xaa})
	if err != nil {
		t.Fatalf("NewSettlementSwap returned error: %v", err)
	}
	if !bytes.Equal(first, other.Encode()[0].CallData) {
		t.Error("identical orders encoded to different call data")
	}
}

func TestSettlementSwapNilSignatureAndUid(t *testing.T) {
	order := testOrder()
	order.Uid = nil

	if _, err := NewSettlementSwap(testContract, order, nil); err != nil {
		t.Fatalf("NewSettlementSwap with nil signature and uid returned error: %v", err)
	}
}

func TestSettlementSwapRejectsBadAmounts(t *testing.T) {
	overflow := new(big.Int).Lsh(big.NewInt(1), 257)

	tests := []struct {
		name   string
		mutate func(*SwapOrder)
	}{
		{"nil amountIn", func(o *SwapOrder) { o.AmountIn = nil }},
		{"negative amountOut", func(o *SwapOrder) { o.AmountOut = big.NewInt(-1) }},
		{"overflowing validTo", func(o *SwapOrder) { o.ValidTo = overflow }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder()
			tt.mutate(&order)
			if _, err := NewSettlementSwap(testContract, order, nil); err == nil {
				t.Error("NewSettlementSwap accepted an out-of-range order")
			}
		})
	}
}

func TestApproveEncode(t *testing.T) {
	approve, err := NewApprove(testTokenIn, testContract, big.NewInt(500))
	if err != nil {
		t.Fatalf("NewApprove returned error: %v", err)
	}

	calls := approve.Encode()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	call := calls[0]

	if call.Target != testTokenIn {
		t.Errorf("target = %s, want token %s", call.Target, testTokenIn)
	}
	if !bytes.Equal(call.CallData[:4], selector("approve(address,uint256)")) {
		t.Errorf("selector = %x, want approve selector", call.CallData[:4])
	}
}

func TestApproveRejectsBadAmount(t *testing.T) {
	if _, err := NewApprove(testTokenIn, testContract, nil); err == nil {
		t.Error("NewApprove accepted a nil amount")
	}
	if _, err := NewApprove(testTokenIn, testContract, big.NewInt(-5)); err == nil {
		t.Error("NewApprove accepted a negative amount")
	}
}

func TestCompositeEncodeConcatenatesInOrder(t *testing.T) {
	approve, err := NewApprove(testTokenIn, testContract, big.NewInt(1))
	if err != nil {
		t.Fatalf("NewApprove returned error: %v", err)
	}
	raw := CallData{Target: testContract, Data: []byte{0x01}}

	calls := Composite{approve, raw}.Encode()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Target != testTokenIn {
		t.Errorf("first call target = %s, want approve on %s", calls[0].Target, testTokenIn)
	}
	if calls[1].Target != testContract || !bytes.Equal(calls[1].CallData, []byte{0x01}) {
		t.Errorf("second call = %+v, want raw call data", calls[1])
	}
}

func TestCallDataDefaultsValueToZero(t *testing.T) {
	calls := CallData{Target: testContract, Data: []byte{0x01}}.Encode()
	if calls[0].Value == nil || calls[0].Value.Sign() != 0 {
		t.Errorf("value = %v, want 0", calls[0].Value)
	}
}

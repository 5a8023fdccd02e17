package domain

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const snapshotJSON = `{
	"tokens": {
		"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {
			"decimals": 18,
			"normalizePriority": 1
		},
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": {
			"decimals": 6,
			"externalPrice": 1.0,
			"normalizePriority": 0,
			"internalBuffer": "500000000"
		}
	},
	"orders": {
		"0": {
			"sellToken": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			"buyToken": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
			"sellAmount": "2000000000",
			"buyAmount": "1000000000000000000",
			"allowPartialFill": false,
			"isSellOrder": true,
			"fee": {"amount": "1000000", "token": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"},
			"cost": {"amount": "500000", "token": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"},
			"isLiquidityOrder": false
		}
	},
	"metadata": {"environment": "staging"},
	"instanceName": "staging_1",
	"timeLimit": 20,
	"maxNrExecOrders": 100,
	"auctionId": 11
}`

func TestBatchAuctionDecode(t *testing.T) {
	var auction BatchAuction
	if err := json.Unmarshal([]byte(snapshotJSON), &auction); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	weth := common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	usdc := common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")

	if len(auction.Tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(auction.Tokens))
	}
	wethInfo := auction.Tokens[weth]
	if wethInfo.DecimalsOrDefault() != 18 || wethInfo.Priority() != 1 {
		t.Errorf("WETH info = %+v, want 18 decimals priority 1", wethInfo)
	}
	usdcInfo := auction.Tokens[usdc]
	if usdcInfo.InternalBuffer == nil || usdcInfo.InternalBuffer.String() != "500000000" {
		t.Errorf("USDC internal buffer = %v, want 500000000", usdcInfo.InternalBuffer)
	}

	order, ok := auction.Orders[0]
	if !ok {
		t.Fatal("order 0 missing after decode")
	}
	if order.SellToken != usdc || order.BuyToken != weth {
		t.Errorf("order trades %s -> %s, want %s -> %s", order.SellToken, order.BuyToken, usdc, weth)
	}
	if order.SellAmount.String() != "2000000000" {
		t.Errorf("sell amount = %s, want 2000000000", order.SellAmount)
	}
	if order.Fee.Amount.String() != "1000000" {
		t.Errorf("fee amount = %s, want 1000000", order.Fee.Amount)
	}

	if auction.AuctionID == nil || *auction.AuctionID != 11 {
		t.Errorf("auction id = %v, want 11", auction.AuctionID)
	}
	if auction.Metadata == nil || auction.Metadata.Environment != "staging" {
		t.Errorf("metadata = %+v, want environment staging", auction.Metadata)
	}
}

func TestBatchAuctionDecodeRejectsBadAmount(t *testing.T) {
	bad := `{"tokens": {}, "orders": {"0": {"sellAmount": "-5"}}}`
	var auction BatchAuction
	if err := json.Unmarshal([]byte(bad), &auction); err == nil {
		t.Error("Unmarshal accepted a negative amount")
	}
}

func TestTokenInfoDefaults(t *testing.T) {
	var info TokenInfo
	if info.DecimalsOrDefault() != 18 {
		t.Errorf("DecimalsOrDefault = %d, want 18", info.DecimalsOrDefault())
	}
	if info.Priority() != 0 {
		t.Errorf("Priority = %d, want 0", info.Priority())
	}
}

func TestBatchAuctionValidate(t *testing.T) {
	tokenA := common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenB := common.HexToAddress("0x0000000000000000000000000000000000000002")

	valid := BatchAuction{
		Tokens: map[common.Address]TokenInfo{tokenA: {}, tokenB: {}},
		Orders: map[int]Order{0: {SellToken: tokenA, BuyToken: tokenB}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate rejected a valid auction: %v", err)
	}

	sameToken := BatchAuction{
		Tokens: map[common.Address]TokenInfo{tokenA: {}},
		Orders: map[int]Order{0: {SellToken: tokenA, BuyToken: tokenA}},
	}
	if err := sameToken.Validate(); err == nil {
		t.Error("Validate accepted an order trading a token against itself")
	}

	unknownToken := BatchAuction{
		Tokens: map[common.Address]TokenInfo{tokenA: {}},
		Orders: map[int]Order{0: {SellToken: tokenA, BuyToken: tokenB}},
	}
	if err := unknownToken.Validate(); err == nil {
		t.Error("Validate accepted an order referencing an unknown token")
	}
}

func TestRoundKey(t *testing.T) {
	id := uint64(7)

	tests := []struct {
		name    string
		auction BatchAuction
		want    string
	}{
		{"auction id wins", BatchAuction{AuctionID: &id, InstanceName: "instance_x"}, "auction-7"},
		{"instance name fallback", BatchAuction{InstanceName: "instance_x"}, "instance_x"},
		{"default", BatchAuction{}, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.auction.RoundKey(); got != tt.want {
				t.Errorf("RoundKey = %q, want %q", got, tt.want)
			}
		})
	}
}

package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MooMaker/moo-solver/internal/domain"
	"github.com/MooMaker/moo-solver/internal/solver"
)

var (
	testWETH     = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	testUSDC     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testContract = common.HexToAddress("0x9008D19f58AAbD9eD0D60971565AA8510560ab41")
)

// fixedStrategy always returns the same decision.
type fixedStrategy struct {
	decision solver.Decision
}

func (s fixedStrategy) Match(ctx context.Context, auction *domain.BatchAuction) (solver.Decision, error) {
	return s.decision, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSolveHandler(t *testing.T, decision solver.Decision) *SolveHandler {
	t.Helper()
	s := solver.New(
		fixedStrategy{decision: decision},
		solver.NewGuard(),
		solver.Config{Contract: testContract},
		testLogger(),
	)
	return NewSolveHandler(s, nil, nil, 1<<20, testLogger())
}

const solveBody = `{
	"tokens": {
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2": {"decimals": 18, "normalizePriority": 1},
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": {"decimals": 6}
	},
	"orders": {
		"0": {
			"sellToken": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"buyToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			"sellAmount": "2000000000",
			"buyAmount": "1000000000000000000",
			"allowPartialFill": false,
			"isSellOrder": true
		}
	},
	"auctionId": 3
}`

func postSolve(h *SolveHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/solve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Solve(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		ErrorType   string `json:"errorType"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	return body.ErrorType, body.Description
}

func TestSolveHandlerEmptySettlement(t *testing.T) {
	h := newSolveHandler(t, solver.Decision{})

	rec := postSolve(h, solveBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var settlement struct {
		Orders          map[string]json.RawMessage `json:"orders"`
		RefToken        *string                    `json:"refToken"`
		Prices          map[string]string          `json:"prices"`
		InteractionData []json.RawMessage          `json:"interactionData"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&settlement); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(settlement.Orders) != 0 || settlement.RefToken != nil || len(settlement.InteractionData) != 0 {
		t.Errorf("settlement = %+v, want empty", settlement)
	}
}

func TestSolveHandlerBuildsSettlement(t *testing.T) {
	decision := solver.Decision{Fills: []solver.Fill{{
		OrderID:        0,
		ExecSellAmount: big.NewInt(2_000_000_000),
		ExecBuyAmount:  new(big.Int).SetUint64(1_000_000_000_000_000_000),
		ValidTo:        1700000000,
	}}}
	h := newSolveHandler(t, decision)

	rec := postSolve(h, solveBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var settlement struct {
		Orders   map[string]json.RawMessage `json:"orders"`
		RefToken *string                    `json:"refToken"`
		Prices   map[string]string          `json:"prices"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&settlement); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(settlement.Orders) != 1 {
		t.Errorf("got %d executed orders, want 1", len(settlement.Orders))
	}
	if settlement.RefToken == nil || !strings.EqualFold(*settlement.RefToken, testWETH.Hex()) {
		t.Errorf("refToken = %v, want %s", settlement.RefToken, testWETH.Hex())
	}
	if len(settlement.Prices) != 2 {
		t.Errorf("got %d prices, want 2", len(settlement.Prices))
	}
}

func TestSolveHandlerMalformedJSON(t *testing.T) {
	h := newSolveHandler(t, solver.Decision{})

	rec := postSolve(h, `{"tokens": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if kind, _ := decodeError(t, rec); kind != string(domain.ErrKindMalformedInput) {
		t.Errorf("errorType = %q, want MalformedInput", kind)
	}
}

func TestSolveHandlerInvalidSnapshot(t *testing.T) {
	h := newSolveHandler(t, solver.Decision{})

	body := `{
		"tokens": {"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2": {}},
		"orders": {"0": {
			"sellToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			"buyToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			"sellAmount": "1",
			"buyAmount": "1"
		}}
	}`
	rec := postSolve(h, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if kind, _ := decodeError(t, rec); kind != string(domain.ErrKindMalformedInput) {
		t.Errorf("errorType = %q, want MalformedInput", kind)
	}
}

func TestSolveHandlerConstraintViolation(t *testing.T) {
	// Partial fill of a fill-or-kill order.
	decision := solver.Decision{Fills: []solver.Fill{{
		OrderID:        0,
		ExecSellAmount: big.NewInt(1_000_000_000),
		ExecBuyAmount:  new(big.Int).SetUint64(500_000_000_000_000_000),
	}}}
	h := newSolveHandler(t, decision)

	rec := postSolve(h, solveBody)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if kind, _ := decodeError(t, rec); kind != string(domain.ErrKindOrderConstraint) {
		t.Errorf("errorType = %q, want OrderConstraintViolation", kind)
	}
}

func TestSolveHandlerBodyTooLarge(t *testing.T) {
	s := solver.New(
		fixedStrategy{},
		solver.NewGuard(),
		solver.Config{Contract: testContract},
		testLogger(),
	)
	h := NewSolveHandler(s, nil, nil, 16, testLogger())

	rec := postSolve(h, solveBody)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestNotificationHandler(t *testing.T) {
	h := NewNotificationHandler(nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"ranked": 1}`))
	rec := httptest.NewRecorder()
	h.Notify(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"rejected": 42}`))
	rec = httptest.NewRecorder()
	h.Notify(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed rejection", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

package domain

import (
	"encoding/json"
	"testing"
)

func TestAuctionResultWon(t *testing.T) {
	rank := func(r int) *int { return &r }

	tests := []struct {
		name   string
		result AuctionResult
		want   bool
	}{
		{"first place", AuctionResult{Ranked: rank(1)}, true},
		{"second place", AuctionResult{Ranked: rank(2)}, false},
		{"rejected", AuctionResult{Rejected: &RejectionReason{Kind: RejectionNoUserOrders}}, false},
		{"empty", AuctionResult{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Won(); got != tt.want {
				t.Errorf("Won = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRejectionReasonUnmarshal(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   string
		wantDetail bool
		wantErr    bool
	}{
		{
			name:     "unit variant",
			input:    `"noUserOrders"`,
			wantKind: RejectionNoUserOrders,
		},
		{
			name:       "variant with payload",
			input:      `{"priceViolation": {"token": "0x01"}}`,
			wantKind:   RejectionPriceViolation,
			wantDetail: true,
		},
		{
			name:    "two tags",
			input:   `{"a": 1, "b": 2}`,
			wantErr: true,
		},
		{
			name:    "not a string or object",
			input:   `42`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RejectionReason
			err := json.Unmarshal([]byte(tt.input), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if r.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", r.Kind, tt.wantKind)
			}
			if (r.Detail != nil) != tt.wantDetail {
				t.Errorf("Detail = %s, want present=%v", r.Detail, tt.wantDetail)
			}
		})
	}
}

func TestRejectionReasonMarshalRoundTrip(t *testing.T) {
	inputs := []string{
		`"simulationFailure"`,
		`{"runError":{"message":"boom"}}`,
	}
	for _, input := range inputs {
		var r RejectionReason
		if err := json.Unmarshal([]byte(input), &r); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", input, err)
		}
		out, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal returned error: %v", err)
		}
		if string(out) != input {
			t.Errorf("round trip = %s, want %s", out, input)
		}
	}
}

func TestAuctionResultDecode(t *testing.T) {
	var result AuctionResult
	if err := json.Unmarshal([]byte(`{"ranked": 1}`), &result); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !result.Won() {
		t.Error("ranked 1 result not reported as won")
	}

	var rejected AuctionResult
	if err := json.Unmarshal([]byte(`{"rejected": "nonPositiveScore"}`), &rejected); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if rejected.Rejected == nil || rejected.Rejected.Kind != RejectionNonPositiveScore {
		t.Errorf("rejected = %+v, want nonPositiveScore", rejected.Rejected)
	}
}

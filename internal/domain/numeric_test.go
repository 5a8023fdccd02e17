package domain

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestNewU256(t *testing.T) {
	tests := []struct {
		name    string
		value   *big.Int
		wantErr bool
	}{
		{"zero", big.NewInt(0), false},
		{"positive", big.NewInt(42), false},
		{"max", new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), false},
		{"nil", nil, true},
		{"negative", big.NewInt(-1), true},
		{"overflow", new(big.Int).Lsh(big.NewInt(1), 256), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewU256(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewU256(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestNewU256CopiesValue(t *testing.T) {
	v := big.NewInt(7)
	u, err := NewU256(v)
	if err != nil {
		t.Fatalf("NewU256 returned error: %v", err)
	}
	v.SetInt64(100)
	if u.String() != "7" {
		t.Errorf("U256 = %s after mutating the source, want 7", u)
	}
}

func TestParseU256(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "0", want: "0"},
		{input: "123456789012345678901234567890", want: "123456789012345678901234567890"},
		{input: "", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "0x10", wantErr: true},
		{input: "12.5", wantErr: true},
		{input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseU256(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseU256(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseU256(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestU256JSONRoundTrip(t *testing.T) {
	u, err := ParseU256("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	if err != nil {
		t.Fatalf("ParseU256 returned error: %v", err)
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if want := `"115792089237316195423570985008687907853269984665640564039457584007913129639935"`; string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back U256
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if back.Cmp(u) != 0 {
		t.Errorf("round trip changed value: %s != %s", back, u)
	}
}

func TestU256UnmarshalRejectsBadInput(t *testing.T) {
	tests := []string{
		`123`,   // bare number, must be quoted
		`"-1"`,  // negative
		`"1.5"`, // not an integer
		`""`,    // empty
		`"115792089237316195423570985008687907853269984665640564039457584007913129639936"`, // 2^256
	}
	for _, input := range tests {
		var u U256
		if err := json.Unmarshal([]byte(input), &u); err == nil {
			t.Errorf("Unmarshal accepted %s", input)
		}
	}
}

func TestU256Big(t *testing.T) {
	u := U256FromUint64(9)
	b := u.Big()
	b.SetInt64(1000)
	if u.String() != "9" {
		t.Errorf("U256 = %s after mutating Big() copy, want 9", u)
	}
}

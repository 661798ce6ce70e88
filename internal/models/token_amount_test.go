package models

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTokenAmountMinorUnitsRoundTrip(t *testing.T) {
	cases := []string{"500.00", "0.000001", "1234.5", "999999.999999", "12"}
	for _, raw := range cases {
		amount, err := ParseTokenAmount(raw)
		if err != nil {
			t.Fatalf("parse %s failed: %v", raw, err)
		}
		back := TokenAmountFromMinor(amount.MinorUnits())
		if !back.Equal(amount.Decimal) {
			t.Fatalf("round trip mismatch for %s: got %s", raw, back.String())
		}
	}
}

func TestTokenAmountMinorUnitsValue(t *testing.T) {
	amount, err := ParseTokenAmount("500.00")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := big.NewInt(500_000_000)
	if amount.MinorUnits().Cmp(want) != 0 {
		t.Fatalf("minor units want %s got %s", want, amount.MinorUnits())
	}
}

func TestParseTokenAmountRejectsExtraPrecision(t *testing.T) {
	if _, err := ParseTokenAmount("1.0000001"); !errors.Is(err, ErrTokenAmountPrecision) {
		t.Fatalf("expected precision error, got %v", err)
	}
	if _, err := ParseTokenAmount("abc"); err == nil {
		t.Fatalf("expected parse error for non numeric input")
	}
}

func TestTokenAmountJSON(t *testing.T) {
	amount := NewTokenAmount(decimal.RequireFromString("12.5"))
	body, err := json.Marshal(amount)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(body) != `"12.500000"` {
		t.Fatalf("unexpected json: %s", string(body))
	}

	var fromNumber TokenAmount
	if err := json.Unmarshal([]byte(`250.75`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.String() != "250.750000" {
		t.Fatalf("unexpected amount from number: %s", fromNumber.String())
	}

	var fromString TokenAmount
	if err := json.Unmarshal([]byte(`"0.1234567"`), &fromString); err == nil {
		t.Fatalf("expected precision error for 7 decimals")
	}
}

package types

import (
	"strings"
	"testing"
)

const validHeader = `{
	"x402Version": 1,
	"scheme": "exact",
	"network": "solana-devnet",
	"payload": {
		"signature": "SIG1",
		"from": "FROM1",
		"to": "PAY1",
		"amount": "1000000",
		"token": "USDCMINT"
	}
}`

func TestDecodePaymentHeader_Valid(t *testing.T) {
	payload, err := DecodePaymentHeader(validHeader)
	if err != nil {
		t.Fatalf("DecodePaymentHeader returned error: %v", err)
	}

	if payload.X402Version != 1 {
		t.Errorf("X402Version = %d, want 1", payload.X402Version)
	}
	if payload.Scheme != SchemeExact {
		t.Errorf("Scheme = %q, want %q", payload.Scheme, SchemeExact)
	}
	if payload.Reference() != "SIG1" {
		t.Errorf("Reference() = %q, want SIG1", payload.Reference())
	}
	if payload.Payload.Amount != "1000000" {
		t.Errorf("Amount = %q, want 1000000", payload.Payload.Amount)
	}
}

func TestDecodePaymentHeader_FailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"not json", "not-json"},
		{"json array", `[1,2,3]`},
		{"missing version", `{"scheme":"exact","network":"solana-devnet","payload":{"signature":"S","from":"F","to":"T","amount":"1","token":"U"}}`},
		{"version zero", strings.Replace(validHeader, `"x402Version": 1`, `"x402Version": 0`, 1)},
		{"version as string", strings.Replace(validHeader, `"x402Version": 1`, `"x402Version": "1"`, 1)},
		{"missing payload", `{"x402Version":1,"scheme":"exact","network":"solana-devnet"}`},
		{"payload not object", `{"x402Version":1,"scheme":"exact","network":"solana-devnet","payload":"x"}`},
		{"missing signature", strings.Replace(validHeader, `"signature": "SIG1",`, ``, 1)},
		{"empty signature", strings.Replace(validHeader, `"signature": "SIG1"`, `"signature": ""`, 1)},
		{"missing amount", strings.Replace(validHeader, `"amount": "1000000",`, ``, 1)},
		{"amount as number", strings.Replace(validHeader, `"amount": "1000000"`, `"amount": 1000000`, 1)},
		{"missing recipient", strings.Replace(validHeader, `"to": "PAY1",`, ``, 1)},
		{"token as number", strings.Replace(validHeader, `"token": "USDCMINT"`, `"token": 3`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePaymentHeader(tt.header); err == nil {
				t.Errorf("DecodePaymentHeader(%q) succeeded, want error", tt.header)
			}
		})
	}
}

func TestPaymentPayloadReference_NilSafe(t *testing.T) {
	var payload *PaymentPayload
	if got := payload.Reference(); got != "" {
		t.Errorf("nil payload Reference() = %q, want empty", got)
	}

	payload = &PaymentPayload{}
	if got := payload.Reference(); got != "" {
		t.Errorf("payload without body Reference() = %q, want empty", got)
	}
}

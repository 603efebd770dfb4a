package types

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// paymentPayloadSchema is the shape every X-PAYMENT header must satisfy
// before any field of it is looked at. Validation fails closed: a
// missing or mis-typed field rejects the whole claim.
const paymentPayloadSchema = `{
	"type": "object",
	"required": ["x402Version", "scheme", "network", "payload"],
	"properties": {
		"x402Version": {"type": "integer", "minimum": 1},
		"scheme": {"type": "string", "minLength": 1},
		"network": {"type": "string", "minLength": 1},
		"payload": {
			"type": "object",
			"required": ["signature", "from", "to", "amount", "token"],
			"properties": {
				"signature": {"type": "string", "minLength": 1},
				"from": {"type": "string", "minLength": 1},
				"to": {"type": "string", "minLength": 1},
				"amount": {"type": "string", "minLength": 1},
				"token": {"type": "string", "minLength": 1}
			}
		}
	}
}`

var compiledPaymentSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(paymentPayloadSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid payment payload schema: %v", err))
	}
	compiledPaymentSchema = schema
}

// DecodePaymentHeader validates and decodes the JSON carried in the
// X-PAYMENT request header. It returns an error describing the first
// structural problem found; callers map any error to InvalidStructure.
func DecodePaymentHeader(header string) (*PaymentPayload, error) {
	if header == "" {
		return nil, fmt.Errorf("payment header is empty")
	}

	result, err := compiledPaymentSchema.Validate(gojsonschema.NewStringLoader(header))
	if err != nil {
		return nil, fmt.Errorf("invalid payment header: not valid JSON - %v", err)
	}
	if !result.Valid() {
		desc := result.Errors()[0]
		return nil, fmt.Errorf("invalid payment header: %s: %s", desc.Context().String(), desc.Description())
	}

	var payload PaymentPayload
	if err := json.Unmarshal([]byte(header), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payment payload: %v", err)
	}

	return &payload, nil
}

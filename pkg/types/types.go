// Package types contains the wire types shared by the payment gate, the
// verifier, and the facilitator service.
package types

import "time"

// X402Version is the protocol version spoken by this deployment.
const X402Version = 1

// SchemeExact is the only payment scheme supported: exact amount, exact
// asset, exact recipient.
const SchemeExact = "exact"

// PaymentRequirements describes what payment unlocks a protected post.
// It is derived per post at request time and never stored.
type PaymentRequirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	PayTo             string `json:"payTo"`
	Asset             string `json:"asset"`
	Resource          string `json:"resource,omitempty"`
}

// ExactSvmPayload is the claim body carried inside a PaymentPayload: a
// settled SPL token transfer identified by its transaction signature.
type ExactSvmPayload struct {
	Signature string `json:"signature"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
}

// PaymentPayload is the decoded X-PAYMENT header. It is attacker
// controlled and must not be trusted until validated field by field
// against a PaymentRequirements and, for the signature, against the
// ledger.
type PaymentPayload struct {
	X402Version int              `json:"x402Version"`
	Scheme      string           `json:"scheme"`
	Network     string           `json:"network"`
	Payload     *ExactSvmPayload `json:"payload"`
}

// Reference returns the payment reference (the transaction signature)
// or "" when the payload is structurally incomplete.
func (p *PaymentPayload) Reference() string {
	if p == nil || p.Payload == nil {
		return ""
	}
	return p.Payload.Signature
}

// VerifyRequest is the body for the facilitator /verify endpoint.
type VerifyRequest struct {
	Payment             *PaymentPayload      `json:"payment"`
	PaymentRequirements *PaymentRequirements `json:"paymentRequirements"`
}

// VerifyResponse is the facilitator's verdict on a payment claim.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	TransactionID string `json:"transactionId,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// SettleRequest is the body for the facilitator /settle endpoint.
// Settlement is fire-and-forget; callers ignore failures.
type SettleRequest struct {
	TransactionID string          `json:"transactionId"`
	Payment       *PaymentPayload `json:"payment"`
}

// SettleResponse acknowledges a settlement notification.
type SettleResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// SupportedKind is a scheme/network pair offered by the facilitator.
type SupportedKind struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
}

// SupportedResponse is the body of the facilitator /supported endpoint.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// PostPreview is the redacted post representation embedded in a 402
// response. Content is always empty until payment is verified.
type PostPreview struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	WalletAddress   string    `json:"walletAddress,omitempty"`
	PaymentAmount   string    `json:"paymentAmount,omitempty"`
	PaymentCurrency string    `json:"paymentCurrency,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// PaymentRequiredResponse is the structured denial returned to machine
// clients, both for the initial challenge and for failed verification.
type PaymentRequiredResponse struct {
	X402Version     int          `json:"x402Version"`
	Error           string       `json:"error"`
	Reason          Reason       `json:"reason,omitempty"`
	PostID          string       `json:"postId,omitempty"`
	PaymentAmount   string       `json:"paymentAmount,omitempty"`
	PaymentCurrency string       `json:"paymentCurrency,omitempty"`
	PayTo           string       `json:"payTo,omitempty"`
	Post            *PostPreview `json:"post,omitempty"`
}

package types

// Reason classifies why a payment claim was rejected. Reasons are
// surfaced verbatim in the machine denial body and never thrown past
// the gate boundary.
type Reason string

const (
	ReasonInvalidStructure       Reason = "InvalidStructure"
	ReasonRecipientMismatch      Reason = "RecipientMismatch"
	ReasonAssetMismatch          Reason = "AssetMismatch"
	ReasonAmountMismatch         Reason = "AmountMismatch"
	ReasonTransactionNotFound    Reason = "TransactionNotFound"
	ReasonTransactionFailed      Reason = "TransactionFailed"
	ReasonFacilitatorUnreachable Reason = "FacilitatorUnreachable"
	ReasonInternalError          Reason = "InternalError"
)

func (r Reason) String() string {
	return string(r)
}

// Package facilitator implements the verify/settle/supported endpoints
// that encapsulate ledger access. The facilitator re-validates every
// claim against the stated requirements itself; it never trusts the
// gateway that forwarded them.
package facilitator

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Post402/post402-starter-kit/pkg/ledger"
	"github.com/Post402/post402-starter-kit/pkg/types"
)

// Facilitator serves the payment verification endpoints.
type Facilitator struct {
	oracle  ledger.Oracle
	network string
	logger  *slog.Logger
}

// New creates a Facilitator for the single supported network.
func New(oracle ledger.Oracle, network string, logger *slog.Logger) *Facilitator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facilitator{
		oracle:  oracle,
		network: network,
		logger:  logger,
	}
}

// Register mounts the facilitator routes on the given router group.
func (f *Facilitator) Register(r gin.IRouter) {
	r.POST("/verify", f.handleVerify)
	r.POST("/settle", f.handleSettle)
	r.GET("/supported", f.handleSupported)
}

// handleVerify re-checks the claim against the requirements and
// confirms the reference on the ledger. Verification verdicts are
// always 200; only a broken request body is a client error.
func (f *Facilitator) handleVerify(c *gin.Context) {
	var req types.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.VerifyResponse{
			IsValid: false,
			Reason:  types.ReasonInvalidStructure.String(),
		})
		return
	}

	c.JSON(http.StatusOK, f.verify(c, &req))
}

func (f *Facilitator) verify(c *gin.Context, req *types.VerifyRequest) types.VerifyResponse {
	invalid := func(reason types.Reason) types.VerifyResponse {
		return types.VerifyResponse{IsValid: false, Reason: reason.String()}
	}

	payment, requirements := req.Payment, req.PaymentRequirements
	if payment == nil || requirements == nil || payment.Payload == nil {
		return invalid(types.ReasonInvalidStructure)
	}

	reference := payment.Payload.Signature
	if reference == "" {
		return invalid(types.ReasonInvalidStructure)
	}

	// Exactly one scheme/network pair is supported per deployment.
	if payment.Scheme != types.SchemeExact || requirements.Scheme != types.SchemeExact {
		return invalid(types.ReasonInvalidStructure)
	}
	if payment.Network != f.network || requirements.Network != f.network {
		return invalid(types.ReasonInvalidStructure)
	}

	// Field equality, independent of whatever the caller checked.
	if payment.Payload.To != requirements.PayTo {
		return invalid(types.ReasonRecipientMismatch)
	}
	if payment.Payload.Token != requirements.Asset {
		return invalid(types.ReasonAssetMismatch)
	}
	if payment.Payload.Amount != requirements.MaxAmountRequired {
		return invalid(types.ReasonAmountMismatch)
	}

	status, err := f.oracle.Lookup(c.Request.Context(), reference)
	if err != nil {
		// Timeouts and RPC failures are indistinguishable from a
		// missing transaction from the payer's point of view.
		f.logger.Warn("ledger lookup failed",
			"reference", reference, "error", err)
		return invalid(types.ReasonTransactionNotFound)
	}
	if status.Failed {
		return invalid(types.ReasonTransactionFailed)
	}

	return types.VerifyResponse{
		IsValid:       true,
		TransactionID: reference,
	}
}

// handleSettle acknowledges a settlement notification. Settlement is a
// best-effort side channel; nothing here can fail the payment that was
// already verified.
func (f *Facilitator) handleSettle(c *gin.Context) {
	var req types.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.SettleResponse{
			Success: false,
			Reason:  types.ReasonInvalidStructure.String(),
		})
		return
	}

	f.logger.Info("payment settled",
		"transactionId", req.TransactionID)
	c.JSON(http.StatusOK, types.SettleResponse{Success: true})
}

// handleSupported declares the single scheme/network pair this
// deployment accepts.
func (f *Facilitator) handleSupported(c *gin.Context) {
	c.JSON(http.StatusOK, types.SupportedResponse{
		Kinds: []types.SupportedKind{
			{Scheme: types.SchemeExact, Network: f.network},
		},
	})
}

// Package verifier decides whether a payment claim satisfies a post's
// payment requirements. Verification is idempotent: a reference already
// recorded for the same post is accepted without another ledger round
// trip, and a single reference can never unlock a different post.
package verifier

import (
	"context"
	"log/slog"

	"github.com/Post402/post402-starter-kit/pkg/facilitatorclient"
	"github.com/Post402/post402-starter-kit/pkg/replay"
	"github.com/Post402/post402-starter-kit/pkg/types"
)

// Outcome is the immutable result of one verification attempt.
type Outcome struct {
	Valid     bool
	Reference string
	Reason    types.Reason
}

func invalid(reason types.Reason) Outcome {
	return Outcome{Valid: false, Reason: reason}
}

// Verifier validates claims against requirements, the replay store, and
// the facilitator.
type Verifier struct {
	store       replay.Store
	facilitator *facilitatorclient.Client
	settlements *settlementWorker
	logger      *slog.Logger
}

// New creates a Verifier. The settlement worker starts immediately;
// call Close to drain it on shutdown.
func New(store replay.Store, facilitator *facilitatorclient.Client, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		store:       store,
		facilitator: facilitator,
		settlements: newSettlementWorker(facilitator, logger),
		logger:      logger,
	}
}

// Close stops the settlement worker after draining queued jobs.
func (v *Verifier) Close() {
	v.settlements.close()
}

// Verify checks a claim, short-circuiting on the first failure:
// structure, replay-store hit, field equality, ledger confirmation.
// On success the reference is recorded for this post and a settlement
// notification is dispatched in the background.
func (v *Verifier) Verify(ctx context.Context, payment *types.PaymentPayload, requirements *types.PaymentRequirements, postID string) Outcome {
	reference := payment.Reference()
	if reference == "" {
		return invalid(types.ReasonInvalidStructure)
	}

	// Already verified for this post: no ledger round trip.
	seen, err := v.store.Has(ctx, reference, postID)
	if err != nil {
		// A broken store falls through to a full verification.
		v.logger.Warn("replay store lookup failed",
			"reference", reference, "error", err)
	}
	if seen {
		return Outcome{Valid: true, Reference: reference}
	}

	if payment.Payload.To != requirements.PayTo {
		return invalid(types.ReasonRecipientMismatch)
	}
	if payment.Payload.Token != requirements.Asset {
		return invalid(types.ReasonAssetMismatch)
	}
	// Exact string comparison on base units, never a numeric tolerance.
	if payment.Payload.Amount != requirements.MaxAmountRequired {
		return invalid(types.ReasonAmountMismatch)
	}

	resp, err := v.facilitator.Verify(ctx, payment, requirements)
	if err != nil {
		v.logger.Warn("facilitator unreachable",
			"reference", reference, "error", err)
		return invalid(types.ReasonFacilitatorUnreachable)
	}
	if !resp.IsValid {
		reason := types.Reason(resp.Reason)
		if reason == "" {
			reason = types.ReasonInternalError
		}
		return invalid(reason)
	}

	// Metadata comes from the claim; the field checks above are what
	// bind it to the requirements.
	meta := &replay.Metadata{
		From:   payment.Payload.From,
		To:     payment.Payload.To,
		Amount: payment.Payload.Amount,
	}
	if err := v.store.Add(ctx, reference, postID, meta); err != nil {
		// The payment itself is good; losing the record only costs a
		// redundant ledger lookup later.
		v.logger.Warn("replay store write failed",
			"reference", reference, "error", err)
	}

	v.settlements.dispatch(resp.TransactionID, payment)

	return Outcome{Valid: true, Reference: reference}
}

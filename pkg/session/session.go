// Package session handles the client-held credential issued after a
// successful payment: a cookie whose value is the payment reference
// itself, scoped to a single post.
//
// A session token is not independently verifiable by the gate; it is
// only as good as the replay store's memory of the verification that
// minted it. The format-only fallback below exists for stateless
// multi-instance deployments and is off by default.
package session

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/Post402/post402-starter-kit/pkg/replay"
)

// minReferenceLength is the shortest value accepted as a plausible
// transaction signature. Solana signatures are base58, typically 87-88
// characters.
const minReferenceLength = 32

var base58Pattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)

// CookieName derives the per-post cookie name from the configured
// prefix.
func CookieName(prefix, postID string) string {
	return prefix + "_" + postID
}

// LooksLikeReference reports whether value is shaped like a ledger
// transaction signature. Shape says nothing about whether the payment
// ever happened.
func LooksLikeReference(value string) bool {
	return len(value) >= minReferenceLength && base58Pattern.MatchString(value)
}

// Validator checks session tokens against the replay store.
type Validator struct {
	store replay.Store
	// trustFormat enables the compatibility shim: accept a token on
	// shape alone when the store has no record of it. A forged token of
	// the right shape passes this check, so it stays disabled unless
	// the deployment explicitly opts in.
	trustFormat bool
	logger      *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(store replay.Store, trustFormat bool, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: store, trustFormat: trustFormat, logger: logger}
}

// Valid reports whether token is an acceptable session credential for
// postID.
func (v *Validator) Valid(ctx context.Context, token, postID string) bool {
	if !LooksLikeReference(token) {
		return false
	}

	seen, err := v.store.Has(ctx, token, postID)
	if err != nil {
		v.logger.Warn("session lookup failed", "postId", postID, "error", err)
		return false
	}
	if seen {
		return true
	}

	if v.trustFormat {
		v.logger.Debug("accepting session token on format alone",
			"postId", postID)
		return true
	}
	return false
}

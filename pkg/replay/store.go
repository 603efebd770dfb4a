// Package replay provides the replay-protection store: a TTL-bounded
// record of payment references that have already been verified, scoped
// to the post they unlocked. A reference verified for one post is never
// reported present for another, and a reference already recorded never
// triggers a second ledger lookup.
package replay

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a verified reference stays usable as a
// session credential.
const DefaultTTL = 24 * time.Hour

// Metadata carries the claim fields recorded alongside a reference.
// They come from the claim, not the ledger; the field-equality checks
// in the verifier are what bind them to the requirements.
type Metadata struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// Record is a single verified payment reference.
type Record struct {
	Reference  string    `json:"reference"`
	VerifiedAt time.Time `json:"verifiedAt"`
	PostID     string    `json:"postId,omitempty"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// Store is the replay-protection interface. Implementations must be
// safe for concurrent use by many in-flight verifications.
//
// MemoryStore is suitable for single-instance deployments. For
// load-balanced deployments use RedisStore so every instance sees the
// same verification state and the gate never has to guess whether a
// session token was really verified.
type Store interface {
	// Has reports whether reference was verified and has not expired.
	// When postID is non-empty the record must also be scoped to that
	// post.
	Has(ctx context.Context, reference, postID string) (bool, error)

	// Add records a verified reference, overwriting any prior record.
	Add(ctx context.Context, reference, postID string, meta *Metadata) error

	// Sweep removes expired records.
	Sweep(ctx context.Context) error

	// Size reports the number of live records, for observability only.
	Size(ctx context.Context) (int, error)

	// Close releases background resources.
	Close() error
}

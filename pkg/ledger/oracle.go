// Package ledger provides read-only access to the payment ledger: given
// a transaction reference, report whether it exists, is confirmed, and
// succeeded. The oracle never inspects transfer amounts; binding the
// claim to the payment terms is the verifier's job.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrNotFound reports that the referenced transaction does not exist on
// the ledger (or could not be confirmed within the lookup timeout,
// which callers treat the same way).
var ErrNotFound = errors.New("ledger: transaction not found")

// DefaultLookupTimeout bounds a single ledger lookup.
const DefaultLookupTimeout = 10 * time.Second

// TransactionStatus is the oracle's report for a reference.
type TransactionStatus struct {
	Reference string
	// Failed is true when the transaction landed on-chain but errored.
	Failed bool
	Slot   uint64
}

// Oracle confirms payment references against an external ledger.
type Oracle interface {
	Lookup(ctx context.Context, reference string) (*TransactionStatus, error)
}

// SolanaOracle looks up transaction signatures over Solana JSON-RPC.
type SolanaOracle struct {
	client  *rpc.Client
	timeout time.Duration
}

// NewSolanaOracle creates an oracle against the given RPC endpoint.
func NewSolanaOracle(endpoint string, timeout time.Duration) *SolanaOracle {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &SolanaOracle{
		client:  rpc.New(endpoint),
		timeout: timeout,
	}
}

// Lookup implements Oracle. A malformed reference, a missing
// transaction, and a lookup timeout all surface as ErrNotFound; an
// on-chain failure surfaces as Failed=true with a nil error.
func (o *SolanaOracle) Lookup(ctx context.Context, reference string) (*TransactionStatus, error) {
	signature, err := solana.SignatureFromBase58(reference)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid signature %q", ErrNotFound, reference)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.client.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &rpc.MaxSupportedTransactionVersion0,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ledger lookup %q: %w", reference, err)
	}
	if out == nil {
		return nil, ErrNotFound
	}

	status := &TransactionStatus{
		Reference: reference,
		Slot:      out.Slot,
	}
	if out.Meta != nil && out.Meta.Err != nil {
		status.Failed = true
	}
	return status, nil
}

var _ Oracle = (*SolanaOracle)(nil)

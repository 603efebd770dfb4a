package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Post402/post402-starter-kit/pkg/ledger"
	"github.com/Post402/post402-starter-kit/pkg/types"
)

// fakeOracle returns a canned status or error for every lookup.
type fakeOracle struct {
	status *ledger.TransactionStatus
	err    error

	lookups int
}

func (o *fakeOracle) Lookup(_ context.Context, reference string) (*ledger.TransactionStatus, error) {
	o.lookups++
	if o.err != nil {
		return nil, o.err
	}
	status := *o.status
	status.Reference = reference
	return &status, nil
}

func newTestRouter(oracle ledger.Oracle) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(oracle, "solana-devnet", nil).Register(router)
	return router
}

func verifyRequest() *types.VerifyRequest {
	return &types.VerifyRequest{
		Payment: &types.PaymentPayload{
			X402Version: types.X402Version,
			Scheme:      types.SchemeExact,
			Network:     "solana-devnet",
			Payload: &types.ExactSvmPayload{
				Signature: "SIG1",
				From:      "FROM1",
				To:        "PAY1",
				Amount:    "1000000",
				Token:     "USDC",
			},
		},
		PaymentRequirements: &types.PaymentRequirements{
			Scheme:            types.SchemeExact,
			Network:           "solana-devnet",
			MaxAmountRequired: "1000000",
			PayTo:             "PAY1",
			Asset:             "USDC",
		},
	}
}

func postVerify(t *testing.T, router *gin.Engine, req *types.VerifyRequest) (int, types.VerifyResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)

	var resp types.VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return w.Code, resp
}

func TestHandleVerify_Success(t *testing.T) {
	oracle := &fakeOracle{status: &ledger.TransactionStatus{}}
	router := newTestRouter(oracle)

	code, resp := postVerify(t, router, verifyRequest())
	if code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
	if !resp.IsValid {
		t.Fatalf("IsValid = false, reason %q", resp.Reason)
	}
	if resp.TransactionID != "SIG1" {
		t.Errorf("TransactionID = %q, want %q", resp.TransactionID, "SIG1")
	}
	if oracle.lookups != 1 {
		t.Errorf("lookups = %d, want 1", oracle.lookups)
	}
}

func TestHandleVerify_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.VerifyRequest)
		oracle *fakeOracle
		want   types.Reason
	}{
		{
			name:   "missing payment",
			mutate: func(r *types.VerifyRequest) { r.Payment = nil },
			want:   types.ReasonInvalidStructure,
		},
		{
			name:   "missing requirements",
			mutate: func(r *types.VerifyRequest) { r.PaymentRequirements = nil },
			want:   types.ReasonInvalidStructure,
		},
		{
			name:   "empty signature",
			mutate: func(r *types.VerifyRequest) { r.Payment.Payload.Signature = "" },
			want:   types.ReasonInvalidStructure,
		},
		{
			name:   "unknown scheme",
			mutate: func(r *types.VerifyRequest) { r.Payment.Scheme = "stream" },
			want:   types.ReasonInvalidStructure,
		},
		{
			name:   "wrong network",
			mutate: func(r *types.VerifyRequest) { r.Payment.Network = "solana-mainnet" },
			want:   types.ReasonInvalidStructure,
		},
		{
			name:   "recipient mismatch",
			mutate: func(r *types.VerifyRequest) { r.Payment.Payload.To = "SOMEONE_ELSE" },
			want:   types.ReasonRecipientMismatch,
		},
		{
			name:   "asset mismatch",
			mutate: func(r *types.VerifyRequest) { r.Payment.Payload.Token = "NOT_USDC" },
			want:   types.ReasonAssetMismatch,
		},
		{
			name:   "amount mismatch",
			mutate: func(r *types.VerifyRequest) { r.Payment.Payload.Amount = "999" },
			want:   types.ReasonAmountMismatch,
		},
		{
			name:   "transaction not on ledger",
			mutate: func(r *types.VerifyRequest) {},
			oracle: &fakeOracle{err: ledger.ErrNotFound},
			want:   types.ReasonTransactionNotFound,
		},
		{
			name:   "ledger unreachable",
			mutate: func(r *types.VerifyRequest) {},
			oracle: &fakeOracle{err: errors.New("rpc: connection refused")},
			want:   types.ReasonTransactionNotFound,
		},
		{
			name:   "transaction failed on chain",
			mutate: func(r *types.VerifyRequest) {},
			oracle: &fakeOracle{status: &ledger.TransactionStatus{Failed: true}},
			want:   types.ReasonTransactionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := tt.oracle
			if oracle == nil {
				oracle = &fakeOracle{status: &ledger.TransactionStatus{}}
			}
			router := newTestRouter(oracle)

			req := verifyRequest()
			tt.mutate(req)

			code, resp := postVerify(t, router, req)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want %d", code, http.StatusOK)
			}
			if resp.IsValid {
				t.Fatal("IsValid = true, want rejection")
			}
			if resp.Reason != tt.want.String() {
				t.Errorf("Reason = %q, want %q", resp.Reason, tt.want)
			}
		})
	}
}

func TestHandleVerify_MalformedBody(t *testing.T) {
	router := newTestRouter(&fakeOracle{status: &ledger.TransactionStatus{}})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader([]byte("{not json")))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleSettle(t *testing.T) {
	router := newTestRouter(&fakeOracle{status: &ledger.TransactionStatus{}})

	body, _ := json.Marshal(types.SettleRequest{TransactionID: "SIG1"})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/settle", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp types.SettleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Errorf("Success = false, want true")
	}
}

func TestHandleSupported(t *testing.T) {
	router := newTestRouter(&fakeOracle{status: &ledger.TransactionStatus{}})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/supported", nil)
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp types.SupportedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Kinds) != 1 {
		t.Fatalf("len(Kinds) = %d, want 1", len(resp.Kinds))
	}
	kind := resp.Kinds[0]
	if kind.Scheme != types.SchemeExact || kind.Network != "solana-devnet" {
		t.Errorf("kind = %+v, want exact/solana-devnet", kind)
	}
}

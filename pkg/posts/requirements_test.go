package posts

import (
	"testing"
	"time"

	"github.com/Post402/post402-starter-kit/pkg/types"
)

func TestAmountToBaseUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"1", "1000000"},
		{"0.10", "100000"},
		{"0.01", "10000"},
		{"1.5", "1500000"},
		{"0.000001", "1"},
		{"0", "0"},
		// Rounds to the nearest base unit rather than truncating.
		{"0.0000015", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := AmountToBaseUnits(tt.amount, USDCDecimals)
			if err != nil {
				t.Fatalf("AmountToBaseUnits(%q) returned error: %v", tt.amount, err)
			}
			if got != tt.want {
				t.Errorf("AmountToBaseUnits(%q) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestAmountToBaseUnits_Invalid(t *testing.T) {
	for _, amount := range []string{"", "abc", "-1", "1.2.3"} {
		if _, err := AmountToBaseUnits(amount, USDCDecimals); err == nil {
			t.Errorf("AmountToBaseUnits(%q) succeeded, want error", amount)
		}
	}
}

func TestRequirementsFor_Protected(t *testing.T) {
	post := &Post{
		ID:              "abc",
		Title:           "Paid post",
		WalletAddress:   "PAY1",
		PaymentAmount:   "0.10",
		PaymentCurrency: "USDC",
		CreatedAt:       time.Now(),
	}

	requirements, err := RequirementsFor(post, "solana-devnet", "USDCMINT")
	if err != nil {
		t.Fatalf("RequirementsFor returned error: %v", err)
	}

	want := &types.PaymentRequirements{
		Scheme:            types.SchemeExact,
		Network:           "solana-devnet",
		MaxAmountRequired: "100000",
		PayTo:             "PAY1",
		Asset:             "USDCMINT",
		Resource:          "/post/abc",
	}
	if *requirements != *want {
		t.Errorf("RequirementsFor = %+v, want %+v", requirements, want)
	}
}

func TestRequirementsFor_Unprotected(t *testing.T) {
	tests := []struct {
		name string
		post *Post
	}{
		{"no amount", &Post{ID: "a", WalletAddress: "PAY1"}},
		{"no wallet", &Post{ID: "a", PaymentAmount: "0.10"}},
		{"neither", &Post{ID: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requirements, err := RequirementsFor(tt.post, "solana-devnet", "USDCMINT")
			if err != nil {
				t.Fatalf("RequirementsFor returned error: %v", err)
			}
			if requirements != nil {
				t.Errorf("Expected nil requirements for unprotected post, got %+v", requirements)
			}
		})
	}
}

func TestPostPreview_RedactsContent(t *testing.T) {
	post := &Post{
		ID:            "abc",
		Title:         "Paid post",
		Content:       "the secret body",
		WalletAddress: "PAY1",
		PaymentAmount: "0.10",
	}

	preview := post.Preview()
	if preview.Content != "" {
		t.Errorf("Preview content = %q, want empty", preview.Content)
	}
	if preview.Title != "Paid post" {
		t.Errorf("Preview title = %q, want unchanged", preview.Title)
	}
}

package posts

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Post402/post402-starter-kit/pkg/types"
)

// USDCDecimals is the scale factor between the human-entered decimal
// price and the integer base units the protocol compares.
const USDCDecimals = 6

// AmountToBaseUnits converts a decimal amount string into the smallest
// indivisible unit of the asset, as a decimal-integer string. The
// conversion happens exactly once, at requirement derivation; all later
// comparisons are exact string equality on the result.
func AmountToBaseUnits(amount string, decimals int) (string, error) {
	parsed, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if parsed < 0 {
		return "", fmt.Errorf("amount cannot be negative: %s", amount)
	}
	units := int64(math.Round(parsed * math.Pow10(decimals)))
	return strconv.FormatInt(units, 10), nil
}

// RequirementsFor derives the payment requirements for a protected
// post. Returns nil for unprotected posts.
func RequirementsFor(post *Post, network, asset string) (*types.PaymentRequirements, error) {
	if !post.Protected() {
		return nil, nil
	}
	units, err := AmountToBaseUnits(post.PaymentAmount, USDCDecimals)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", post.ID, err)
	}
	return &types.PaymentRequirements{
		Scheme:            types.SchemeExact,
		Network:           network,
		MaxAmountRequired: units,
		PayTo:             post.WalletAddress,
		Asset:             asset,
		Resource:          "/post/" + post.ID,
	}, nil
}

// Preview returns the redacted representation embedded in 402 denials.
// Content is always empty here; the page independently withholds paid
// fields until a session is granted.
func (p *Post) Preview() *types.PostPreview {
	return &types.PostPreview{
		ID:              p.ID,
		Title:           p.Title,
		Content:         "",
		WalletAddress:   p.WalletAddress,
		PaymentAmount:   p.PaymentAmount,
		PaymentCurrency: p.PaymentCurrency,
		CreatedAt:       p.CreatedAt,
	}
}

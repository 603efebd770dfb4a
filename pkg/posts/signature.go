package posts

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// ErrInvalidSignature reports that a post's author signature does not
// verify against its wallet address.
var ErrInvalidSignature = errors.New("posts: invalid author signature")

// VerifyAuthorSignature checks that signature (base64) is a valid
// Ed25519 signature over message by the wallet's key. Post creation is
// rejected when it does not verify.
func VerifyAuthorSignature(walletAddress, message, signature string) error {
	pubkey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return fmt.Errorf("%w: bad wallet address: %v", ErrInvalidSignature, err)
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding: %v", ErrInvalidSignature, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes", ErrInvalidSignature, ed25519.SignatureSize)
	}

	if !ed25519.Verify(pubkey.Bytes(), []byte(message), sig) {
		return ErrInvalidSignature
	}
	return nil
}

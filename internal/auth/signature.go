package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidPublicKey = errors.New("invalid public key format")
	ErrInvalidSignature = errors.New("invalid signature")
)

// VerifyWalletSignature checks that signature is walletAddress's ed25519
// signature of message. The signature may be base58 or hex encoded.
func VerifyWalletSignature(walletAddress, message, signature string) error {
	pubKey, err := base58.Decode(walletAddress)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		return ErrInvalidPublicKey
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		sig, err = hex.DecodeString(signature)
		if err != nil {
			return ErrInvalidSignature
		}
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey), []byte(message), sig) {
		return ErrInvalidSignature
	}
	return nil
}

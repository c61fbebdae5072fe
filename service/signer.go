package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// SigningService produces ephemeral ed25519 key pairs and signatures over
// contract text. Key material lives for a single signing call; the public
// key is handed back to the caller and persisted on the contract so the
// signature stays verifiable.
type SigningService struct{}

func NewSigningService() *SigningService {
	return &SigningService{}
}

// GenerateKeyPair produces fresh key material on every call.
func (s *SigningService) GenerateKeyPair() (ed25519.PrivateKey, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return priv, pub, nil
}

// Sign produces a signature over the exact text with the given key.
func (s *SigningService) Sign(text string, priv ed25519.PrivateKey) []byte {
	return ed25519.Sign(priv, []byte(text))
}

// Verify reports whether sig is a valid signature of text under pub.
func (s *SigningService) Verify(text string, sig []byte, pub ed25519.PublicKey) bool {
	return ed25519.Verify(pub, []byte(text), sig)
}

// EncodePublicKey marshals a public key to PEM (PKIX).
func EncodePublicKey(pub ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	block := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}
	return string(pem.EncodeToMemory(block)), nil
}

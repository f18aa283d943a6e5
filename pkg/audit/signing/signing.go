// Package signing signs audit records. A record is signed over the digest of
// its canonical content; the digest algorithm and the signature algorithm are
// recorded alongside the signature so verifiers can replay both.
//
// Supported signature algorithms are ed25519 and dilithium3 (post-quantum,
// CRYSTALS-Dilithium mode 3). Supported digests are sha256, sha512 and
// sha3-256.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Signature algorithms.
const (
	Ed25519    = "ed25519"
	Dilithium3 = "dilithium3"
	None       = "none"
)

// Digest algorithms.
const (
	SHA256   = "sha256"
	SHA512   = "sha512"
	SHA3_256 = "sha3-256"
)

var (
	// ErrUnsupportedAlgorithm is returned for unknown signature or digest
	// algorithms.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("signature invalid")
)

// Signer signs digests with a private key.
type Signer interface {
	// Algorithm names the signature scheme.
	Algorithm() string

	// PublicKey returns the raw public key bytes.
	PublicKey() []byte

	// Sign signs digest.
	Sign(digest []byte) ([]byte, error)
}

// Digest hashes message with the named algorithm.
func Digest(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case SHA256:
		s := sha256.Sum256(message)
		return s[:], nil
	case SHA512:
		s := sha512.Sum512(message)
		return s[:], nil
	case SHA3_256:
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("%w: hash %q", ErrUnsupportedAlgorithm, hashAlg)
	}
}

// KeyID returns a short, stable identifier for a public key.
func KeyID(pub []byte) string {
	if len(pub) == 0 {
		return ""
	}
	s := sha256.Sum256(pub)
	return hex.EncodeToString(s[:8])
}

// Generate creates a signer with a fresh random key.
func Generate(alg string) (Signer, error) {
	switch alg {
	case Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
		}
		return &ed25519Signer{priv: priv}, nil
	case Dilithium3:
		pk, sk, err := mode3.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate dilithium3 key: %w", err)
		}
		return &dilithiumSigner{sk: sk, pk: pk}, nil
	case None:
		return NoneSigner{}, nil
	default:
		return nil, fmt.Errorf("%w: signature %q", ErrUnsupportedAlgorithm, alg)
	}
}

// Verify checks sig over digest with the raw public key pub.
func Verify(alg string, pub, digest, sig []byte) error {
	switch alg {
	case Ed25519:
		if len(pub) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid ed25519 public key length %d", len(pub))
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return ErrInvalidSignature
		}
		return nil
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		if len(sig) != mode3.SignatureSize || !mode3.Verify(&pk, digest, sig) {
			return ErrInvalidSignature
		}
		return nil
	case None:
		if len(sig) != 0 {
			return ErrInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: signature %q", ErrUnsupportedAlgorithm, alg)
	}
}

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

func (s *ed25519Signer) Algorithm() string { return Ed25519 }

func (s *ed25519Signer) PublicKey() []byte {
	return []byte(s.priv.Public().(ed25519.PublicKey))
}

func (s *ed25519Signer) Sign(digest []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, digest), nil
}

type dilithiumSigner struct {
	sk *mode3.PrivateKey
	pk *mode3.PublicKey
}

func (s *dilithiumSigner) Algorithm() string { return Dilithium3 }

func (s *dilithiumSigner) PublicKey() []byte {
	b, err := s.pk.MarshalBinary()
	if err != nil {
		return nil
	}
	return b
}

func (s *dilithiumSigner) Sign(digest []byte) ([]byte, error) {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.sk, digest, sig)
	return sig, nil
}

// NoneSigner leaves records unsigned. Content hashes are still computed.
type NoneSigner struct{}

// Algorithm implements Signer.
func (NoneSigner) Algorithm() string { return None }

// PublicKey implements Signer.
func (NoneSigner) PublicKey() []byte { return nil }

// Sign implements Signer.
func (NoneSigner) Sign([]byte) ([]byte, error) { return nil, nil }

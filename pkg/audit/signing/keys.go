package signing

import (
	"crypto/ed25519"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"cocorels-hq/kernel/pkg/config"
)

// PEM block types for private and public keys.
const (
	pemEd25519Private    = "ED25519 PRIVATE KEY"
	pemDilithium3Private = "DILITHIUM3 PRIVATE KEY"
	pemEd25519Public     = "ED25519 PUBLIC KEY"
	pemDilithium3Public  = "DILITHIUM3 PUBLIC KEY"
)

// EncodePrivateKey serialises the signer's private key as PEM.
func EncodePrivateKey(s Signer) ([]byte, error) {
	switch k := s.(type) {
	case *ed25519Signer:
		return pem.EncodeToMemory(&pem.Block{Type: pemEd25519Private, Bytes: k.priv.Seed()}), nil
	case *dilithiumSigner:
		b, err := k.sk.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dilithium3 key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemDilithium3Private, Bytes: b}), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s key", ErrUnsupportedAlgorithm, s.Algorithm())
	}
}

// EncodePublicKey serialises the signer's public key as PEM.
func EncodePublicKey(s Signer) ([]byte, error) {
	switch s.Algorithm() {
	case Ed25519:
		return pem.EncodeToMemory(&pem.Block{Type: pemEd25519Public, Bytes: s.PublicKey()}), nil
	case Dilithium3:
		return pem.EncodeToMemory(&pem.Block{Type: pemDilithium3Public, Bytes: s.PublicKey()}), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s key", ErrUnsupportedAlgorithm, s.Algorithm())
	}
}

// DecodePrivateKey parses a PEM private key written by EncodePrivateKey.
func DecodePrivateKey(data []byte) (Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	switch block.Type {
	case pemEd25519Private:
		if len(block.Bytes) != ed25519.SeedSize {
			return nil, fmt.Errorf("invalid ed25519 seed length %d", len(block.Bytes))
		}
		return &ed25519Signer{priv: ed25519.NewKeyFromSeed(block.Bytes)}, nil
	case pemDilithium3Private:
		var sk mode3.PrivateKey
		if err := sk.UnmarshalBinary(block.Bytes); err != nil {
			return nil, fmt.Errorf("invalid dilithium3 private key: %w", err)
		}
		pk, ok := sk.Public().(*mode3.PublicKey)
		if !ok {
			return nil, fmt.Errorf("invalid dilithium3 private key: no public key")
		}
		return &dilithiumSigner{sk: &sk, pk: pk}, nil
	default:
		return nil, fmt.Errorf("%w: PEM type %q", ErrUnsupportedAlgorithm, block.Type)
	}
}

// DecodePublicKey parses a PEM public key written by EncodePublicKey and
// returns its algorithm and raw key bytes.
func DecodePublicKey(data []byte) (alg string, pub []byte, err error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return "", nil, fmt.Errorf("no PEM block found")
	}

	switch block.Type {
	case pemEd25519Public:
		if len(block.Bytes) != ed25519.PublicKeySize {
			return "", nil, fmt.Errorf("invalid ed25519 public key length %d", len(block.Bytes))
		}
		return Ed25519, block.Bytes, nil
	case pemDilithium3Public:
		if len(block.Bytes) != mode3.PublicKeySize {
			return "", nil, fmt.Errorf("invalid dilithium3 public key length %d", len(block.Bytes))
		}
		return Dilithium3, block.Bytes, nil
	default:
		return "", nil, fmt.Errorf("%w: PEM type %q", ErrUnsupportedAlgorithm, block.Type)
	}
}

// LoadPublicKey reads a PEM public key from path.
func LoadPublicKey(path string) (alg string, pub []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read key file: %w", err)
	}
	alg, pub, err = DecodePublicKey(data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load key %s: %w", path, err)
	}
	return alg, pub, nil
}

// LoadPrivateKey reads a PEM private key from path.
func LoadPrivateKey(path string) (Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	s, err := DecodePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %s: %w", path, err)
	}
	return s, nil
}

// WriteKeyPair writes the private key to path (mode 0600) and the public key
// to path + ".pub". Existing files are not overwritten.
func WriteKeyPair(path string, s Signer) error {
	priv, err := EncodePrivateKey(s)
	if err != nil {
		return err
	}
	pub, err := EncodePublicKey(s)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := writeExclusive(path, priv, 0o600); err != nil {
		return err
	}
	return writeExclusive(path+".pub", pub, 0o644)
}

func writeExclusive(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// FromConfig loads the configured key, or generates an ephemeral one when no
// key path is set. A loaded key must match the configured algorithm.
func FromConfig(cfg config.SigningConfig) (Signer, error) {
	if cfg.Algorithm == None || cfg.KeyPath == "" {
		return Generate(cfg.Algorithm)
	}

	s, err := LoadPrivateKey(cfg.KeyPath)
	if err != nil {
		return nil, err
	}
	if s.Algorithm() != cfg.Algorithm {
		return nil, fmt.Errorf("key %s is %s, configured algorithm is %s", cfg.KeyPath, s.Algorithm(), cfg.Algorithm)
	}
	return s, nil
}

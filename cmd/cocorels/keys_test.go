package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cocorels-hq/kernel/pkg/audit/signing"
)

func TestGenerateKeys(t *testing.T) {
	for _, alg := range []string{signing.Ed25519, signing.Dilithium3} {
		t.Run(alg, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "keys", "audit.pem")

			var buf bytes.Buffer
			if err := generateKeys(alg, path, &buf); err != nil {
				t.Fatalf("generateKeys() error = %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if mode := info.Mode().Perm(); mode != 0o600 {
				t.Errorf("Private key file has incorrect permissions: %o, want 0600", mode)
			}

			priv, err := signing.LoadPrivateKey(path)
			if err != nil {
				t.Fatalf("LoadPrivateKey() error = %v", err)
			}
			pubAlg, pub, err := signing.LoadPublicKey(path + ".pub")
			if err != nil {
				t.Fatalf("LoadPublicKey() error = %v", err)
			}
			if pubAlg != alg || !bytes.Equal(pub, priv.PublicKey()) {
				t.Error("public key file does not match the private key")
			}

			if !strings.Contains(buf.String(), signing.KeyID(pub)) {
				t.Errorf("output does not name the key ID:\n%s", buf.String())
			}

			if err := generateKeys(alg, path, &buf); err == nil {
				t.Error("generateKeys() should not overwrite an existing key")
			}
		})
	}
}

func TestGenerateKeys_Unsupported(t *testing.T) {
	dir := t.TempDir()
	for _, alg := range []string{signing.None, "rsa"} {
		if err := generateKeys(alg, filepath.Join(dir, alg+".pem"), &bytes.Buffer{}); err == nil {
			t.Errorf("generateKeys(%q) should fail", alg)
		}
	}
}

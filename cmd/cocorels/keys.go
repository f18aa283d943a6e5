package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"cocorels-hq/kernel/pkg/audit/signing"
)

var keysFlags struct {
	output    string
	algorithm string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage audit signing keys",
	Long: `Generate keypairs for signing audit records.

Subcommands:
  generate - Generate a new keypair`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new keypair",
	Long: `Generate a new keypair for signing audit records.

The private key is written with mode 0600 and the public key, next to it
with a .pub suffix, with mode 0644. Existing files are never overwritten.

Supported algorithms:
  ed25519     - Ed25519 (default)
  dilithium3  - CRYSTALS-Dilithium mode 3 (post-quantum)

Examples:
  cocorels keys generate
  cocorels keys generate --algorithm dilithium3 --output /etc/cocorels/audit.pem`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateKeys(keysFlags.algorithm, keysFlags.output, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVarP(&keysFlags.output, "output", "o", filepath.Join("keys", "audit.pem"), "private key path")
	keysGenerateCmd.Flags().StringVar(&keysFlags.algorithm, "algorithm", signing.Ed25519, "signature algorithm: ed25519, dilithium3")
}

func generateKeys(alg, path string, w io.Writer) error {
	if alg == signing.None {
		return fmt.Errorf("algorithm %q has no keys", alg)
	}

	s, err := signing.Generate(alg)
	if err != nil {
		return fmt.Errorf("failed to generate keypair: %w", err)
	}
	if err := signing.WriteKeyPair(path, s); err != nil {
		return fmt.Errorf("failed to write keypair: %w", err)
	}

	fmt.Fprintf(w, "Key ID:      %s\n", signing.KeyID(s.PublicKey()))
	fmt.Fprintf(w, "Algorithm:   %s\n", s.Algorithm())
	fmt.Fprintf(w, "Private Key: %s\n", path)
	fmt.Fprintf(w, "Public Key:  %s.pub\n", path)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  Warning: Store private key securely and never commit to version control")
	fmt.Fprintln(w, "✓  Keys generated successfully")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration snippet:")
	fmt.Fprintln(w, "audit:")
	fmt.Fprintln(w, "  signing:")
	fmt.Fprintf(w, "    algorithm: %s\n", s.Algorithm())
	fmt.Fprintf(w, "    key_path: %q\n", path)
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-control-plane/internal/config"
	"github.com/jrsteele09/go-control-plane/internal/ids"
	"github.com/jrsteele09/go-control-plane/token/keys"
	"github.com/spf13/cobra"
)

var (
	keygenBits  int
	keygenKeyID string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an RSA key pair for signing licenses",
	Long:  "Prints the key pair as environment variable assignments with newlines escaped, ready for a .env file or a secret store.",
	RunE:  runKeygen,
}

func init() {
	keygenCmd.Flags().IntVar(&keygenBits, "bits", 2048, "RSA key size")
	keygenCmd.Flags().StringVar(&keygenKeyID, "kid", "", "key id (generated when empty)")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if keygenBits < 2048 {
		return fmt.Errorf("--bits must be at least 2048")
	}
	kid := keygenKeyID
	if kid == "" {
		kid = ids.New()
	}

	kp, err := keys.GenerateRSAKeyPair(kid, keygenBits)
	if err != nil {
		return err
	}
	privatePEM, err := kp.ExportPrivateKeyPEM()
	if err != nil {
		return err
	}
	publicPEM, err := kp.ExportPublicKeyPEM()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "LICENSE_KEY_ID=%s\n", kp.KeyID)
	fmt.Fprintf(out, "%s=\"%s\"\n", config.LicensePrivateKeySecret, escapeNewlines(privatePEM))
	fmt.Fprintf(out, "%s=\"%s\"\n", config.LicensePublicKeySecret, escapeNewlines(publicPEM))
	return nil
}

func escapeNewlines(pem string) string {
	return strings.ReplaceAll(strings.TrimSpace(pem), "\n", `\n`)
}

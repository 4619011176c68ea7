package cli

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/existflow/projectdraft/internal/draft"
	"github.com/spf13/cobra"
)

var keygenWrite bool

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an encryption key for drafts at rest",
	Long: `Generate a passphrase and salt for storage encryption.

Without --write the values are printed as environment variables.
With --write they are stored in the config file.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenWrite, "write", false, "Save the key to the config file")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	key, salt, err := generateKey()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !keygenWrite {
		fmt.Fprintf(out, "PROJECTDRAFT_ENCRYPTION_KEY=%s\n", key)
		fmt.Fprintf(out, "PROJECTDRAFT_ENCRYPTION_SALT=%s\n", salt)
		return nil
	}

	if cfg.Storage.EncryptionKey != "" {
		return fmt.Errorf("an encryption key is already configured; existing drafts could not be read with a new one")
	}
	cfg.Storage.EncryptionKey = key
	cfg.Storage.EncryptionSalt = salt
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Encryption key saved to config")
	fmt.Fprintln(out, "⚠️  Keep a copy; drafts cannot be decrypted without it")
	return nil
}

// generateKey returns a random passphrase and a salt accepted by draft.NewSealer
func generateKey() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}
	salt, err := draft.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := base64.RawURLEncoding.EncodeToString(buf)
	if _, err := draft.NewSealer(key, salt); err != nil {
		return "", "", err
	}
	return key, salt, nil
}

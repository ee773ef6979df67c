package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/crypto"
)

func newEncryptSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-secret <value>",
		Short: "Encrypt a password for the configuration file",
		Long: `Encrypts a value with the key in ` + config.EnvCredentialsKey + `. Paste the output (including the
"enc:" prefix) into logServer.password or database.password.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encryptor, err := crypto.NewCredentialEncryptor(os.Getenv(config.EnvCredentialsKey))
			if err != nil {
				return fmt.Errorf("%s: %w", config.EnvCredentialsKey, err)
			}

			encrypted, err := encryptor.EncryptValue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encrypted)
			return nil
		},
	}
}

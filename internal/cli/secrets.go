package cli

import (
	"bufio"
	"fmt"
	"strings"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/spf13/cobra"
)

func newSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the provider API key in the OS keyring",
	}

	setKey := &cobra.Command{
		Use:   "set-key [api-key]",
		Short: "Store the provider API key in the OS keyring",
		Long: `Store the API key of the configured provider in the OS keyring.
The key is read from standard input when not given as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := getRuntime(cmd.Context())

			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.NewValidationError(errors.ErrCodeMissingAPIKey, "no API key provided", err)
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return errors.NewValidationError(errors.ErrCodeMissingAPIKey, "no API key provided", nil)
			}

			account := rt.cfg.KeyringAccount()
			if err := config.SetProviderKey(rt.cfg.Keyring.Service, account, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s in keyring service %q\n", account, rt.cfg.Keyring.Service)
			return nil
		},
	}

	deleteKey := &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the provider API key from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := getRuntime(cmd.Context())
			account := rt.cfg.KeyringAccount()
			if err := config.DeleteProviderKey(rt.cfg.Keyring.Service, account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed API key for %s\n", account)
			return nil
		},
	}

	cmd.AddCommand(setKey, deleteKey)
	return cmd
}

package cmd

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"commitscore/internal/config"
	"commitscore/internal/security"
	"commitscore/internal/ui"
	"commitscore/pkg/errors"
)

// prompter is swapped out by tests
var prompter ui.Prompter = ui.DefaultPrompter

func newAuthCommand(opts *rootOptions) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the scoring service API key",
		Long:  `Store, inspect or remove the API key kept in the operating system keyring.`,
	}

	var key string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				var err error
				if key, err = ui.PromptAPIKey(prompter); err != nil {
					return err
				}
			}
			if key == "" {
				return errors.ConfigurationError("no API key entered", config.KeyAPIKey)
			}

			if err := security.NewCredentialStore().Store(key); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to store API key").
					WithSuggestions("Set " + config.EnvDeepSeekAPIKey + " instead when no keyring is available")
			}

			ui.ShowSuccess(cmd.OutOrStdout(), "API key stored in the OS keyring")
			return nil
		},
	}
	loginCmd.Flags().StringVar(&key, "key", "", "API key to store (prompted when omitted)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the API key from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := security.NewCredentialStore().Delete(); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to remove API key")
			}
			ui.ShowSuccess(cmd.OutOrStdout(), "API key removed from the OS keyring")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which API key a run would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(newCredentials())
			if err := loader.BindFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := loader.ReadFile(opts.configFile); err != nil {
				return err
			}

			// An unreadable keyring is reported but does not fail status
			key, source, err := loader.ResolveAPIKey()
			if err != nil {
				var appErr *errors.AppError
				if !stderrors.As(err, &appErr) {
					return err
				}
				ui.ShowError(cmd.ErrOrStderr(), appErr.WithSeverity(errors.SeverityWarning))
			}

			out := cmd.OutOrStdout()
			if key == "" {
				ui.ShowWarning(out, "no API key configured")
				return nil
			}
			ui.ShowInfo(out, fmt.Sprintf("API key %s (from %s)", security.MaskKey(key), source))
			return nil
		},
	}

	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
	return authCmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"commitscore/internal/config"
	"commitscore/internal/scoring"
	"commitscore/internal/ui"
	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the commitscore config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file interactively",
		Long: `Ask for the scoring endpoint, request timeout and output format and write
them to ~/.commitscore/config.yaml. The API key is never written by this
command; use 'commitscore auth login' for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists() && !force {
				return errors.ConfigurationError("config file already exists", "config").
					WithContext("path", config.GetConfigFile()).
					WithSuggestions("Re-run with --force to overwrite it")
			}

			defaults := models.Config{
				Endpoint: scoring.DefaultEndpoint,
				Output:   config.OutputText,
				LogLevel: config.DefaultLogLevel,
			}
			cfg, err := ui.NewConfigWizard(prompter, defaults).Run()
			if err != nil {
				return err
			}

			if err := config.Save(cfg); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to save config file")
			}

			ui.ShowSuccess(cmd.OutOrStdout(), "Configuration written to "+config.GetConfigFile())
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigFile())
		},
	}

	configCmd.AddCommand(initCmd, pathCmd)
	return configCmd
}

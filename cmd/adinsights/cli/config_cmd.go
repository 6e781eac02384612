package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/HolgerKurtz/meta-ads-insights/internal/config"
	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage adinsights configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default " + config.FileName + " configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Set ADINSIGHTS_GRAPH_ACCESS_TOKEN, then run 'adinsights run -a <account id>'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVar(&path, "path", config.FileName, "Where to write the file")

	return cmd
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		Long:  "Show the configuration after merging defaults, the config file and ADINSIGHTS_* variables. The access token is redacted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if settings.Graph.AccessToken != "" {
				settings.Graph.AccessToken = redact.Placeholder
			}

			out := cmd.OutOrStdout()
			if used := viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# Config file: %s\n", used)
			} else {
				fmt.Fprintln(out, "# Config file: (none found, using defaults)")
			}

			b, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("marshal settings: %w", err)
			}
			_, err = out.Write(b)
			return err
		},
	}
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HolgerKurtz/meta-ads-insights/internal/config"
)

var cfgFile string

// Execute creates the root command tree and runs it. SIGINT and SIGTERM
// cancel the command context.
func Execute(version, commit, date string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(version, commit, date).ExecuteContext(ctx)
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adinsights",
		Short: "Query Meta Ads insights as typed tables",
		Long: `adinsights builds Graph API insights requests from a parameter selection,
fetches them, flattens the conversion lists into per-goal columns and types
every column from the schema registry.

The same pipeline is available as a CLI, a JSON API (adinsights serve) and an
MCP server for AI agents (adinsights mcp).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+")")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newURLCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newServeCmd(version))
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("adinsights")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.adinsights")
	}

	config.SetDefaults(v)
	config.BindEnv(v)
	v.ReadInConfig() // Ignore error - config file is optional
}

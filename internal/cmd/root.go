// Package cmd implements the mailboxctl commands.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/internal/config"
)

// appConfig is loaded once before any command runs.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "mailboxctl",
	Short: "Share GPU textures between contexts by mailbox name",
	Long: `mailboxctl exercises a mailbox registry: it generates mailbox names,
and shares decoded images from a producer context group to a consumer
context group through texture mailboxes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		mailbox.SetLogger(cfg.Logging.NewLogger(cmd.ErrOrStderr()))
		appConfig = cfg
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/mailboxctl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MAILBOX")
	// e.g., MAILBOX_TEXTURE_BUDGET_MB for texture.budget_mb
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicuwatch/nicudash/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiClient    *client.Client
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nicudash",
		Short: "nicudash CLI - NICU alarm dashboard from the terminal",
		Long: `nicudash gives charge nurses and biomed staff command-line access to the
NICU alarm feed: list alarms by severity, acknowledge, silence or resolve them,
and review per-patient alarm limits.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			return initClient()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.nicudash/config.yaml)")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAlarmsCmd())
	cmd.AddCommand(newLimitsCmd())

	return cmd
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".nicudash"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// NICUDASH_AUTH_TOKEN maps to auth.token
	viper.SetEnvPrefix("NICUDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	token := viper.GetString("auth.token")
	if token == "" {
		return fmt.Errorf("no session token. Run 'nicudash config set auth.token <token>' or set NICUDASH_AUTH_TOKEN")
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
		Token:   token,
	})
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	return viper.GetString("output")
}

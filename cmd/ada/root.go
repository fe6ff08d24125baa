package ada

import (
	"fmt"

	"github.com/igorsilveira/ada/pkg/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "ada",
	Short: "Ada - a relay between browser media streams and a live multimodal model",
	Long:  "Ada accepts webcam frames and microphone audio over a websocket, forwards them to a Gemini Live session per client, and streams the model's answers back.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFile); err != nil {
			return err
		}
		if _, err := config.Load(configPath()); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.ada/ada.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(connectionsCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of Ada",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ada v%s\n", version)
	},
}

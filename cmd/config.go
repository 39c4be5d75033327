package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/audiorefresh/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for audiorefresh.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [DATABASE_URL]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with database and job service settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var databaseURL string
		if len(args) > 0 {
			databaseURL = args[0]
		}

		if err := config.InitConfig(databaseURL); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Created configuration file: %s\n", configPath)
		cmd.Println("Please edit the database_url and service endpoints in this file.")

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration file path and effective settings, with secrets masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Configuration file: %s\n\n", configPath)

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		cmd.Printf("DATABASE_URL: %s\n", config.Redact(cfg.DatabaseURL))
		cmd.Printf("Cleaning: %s (retries %d, timeout %s)\n", cfg.Cleaning.BaseURL, cfg.Cleaning.Retries, cfg.Cleaning.Timeout())
		cmd.Printf("Transcription: %s (retries %d, timeout %s)\n", cfg.Transcription.BaseURL, cfg.Transcription.Retries, cfg.Transcription.Timeout())
		switch cfg.Transcripts.Source {
		case config.TranscriptSourceCommand:
			cmd.Printf("Transcripts: command %v\n", cfg.Transcripts.Command)
		default:
			cmd.Printf("Transcripts: %s\n", cfg.Transcripts.BaseURL)
		}
		cmd.Printf("Sweep: %d workers, batch %d, every %s, lock %s\n",
			cfg.Sweep.Workers, cfg.Sweep.BatchSize, cfg.Sweep.Interval(), cfg.Sweep.LockPath)
		if cfg.Notifications.WebhookURL != "" {
			cmd.Printf("Webhook: %s\n", cfg.Notifications.WebhookURL)
		}
		if cfg.Notifications.WebsocketAddr != "" {
			cmd.Printf("Websocket: %s/ws\n", cfg.Notifications.WebsocketAddr)
		}
		if cfg.Announcements.Dir != "" {
			cmd.Printf("Announcements: %s\n", cfg.Announcements.Dir)
		}

		if err := cfg.Validate(); err != nil {
			cmd.Printf("\nConfiguration problems: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

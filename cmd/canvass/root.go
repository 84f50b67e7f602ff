package main

import (
	"fmt"
	"os"

	"github.com/aretw0/canvass/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canvass",
	Short: "Canvass delivers surveys one question at a time",
	Long: `Canvass runs surveys as conversations: it tracks each respondent's session,
asks the next question, and skips follow-ups that earlier answers rule out.

Settings default to CANVASS_* environment variables; flags override them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	env := config.FromEnv()

	// Persistent flags (available to all commands)
	f := rootCmd.PersistentFlags()
	f.String("log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	f.String("log-format", env.LogFormat, "Log format (text, json)")
	f.String("surveys", env.SurveysDir, "Directory of survey definitions (default: built-in catalog)")
	f.String("store", env.StoreDriver, "Session store (memory, file, redis, sqlite, postgres)")
	f.String("store-dsn", env.StoreDSN, "Store location: directory, redis URL or SQL DSN")
	f.Duration("session-ttl", env.SessionTTL, "Expire idle sessions after this long (redis only, 0 keeps them)")
	f.Duration("lock-ttl", env.LockTTL, "Lease of the distributed session lock")
	f.String("encryption-key", env.EncryptionKey, "AES-256 key (hex or base64) sealing sessions at rest")
	f.StringSlice("fallback-keys", env.FallbackKeys, "Previous encryption keys, for rotation")
	f.Bool("redact-free-text", env.RedactFreeText, "Mask free text answers before they are stored")
}

// loadConfig overlays the command line on the environment.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	f := cmd.Flags()
	cfg.LogLevel, _ = f.GetString("log-level")
	cfg.LogFormat, _ = f.GetString("log-format")
	cfg.SurveysDir, _ = f.GetString("surveys")
	cfg.StoreDriver, _ = f.GetString("store")
	cfg.StoreDSN, _ = f.GetString("store-dsn")
	cfg.SessionTTL, _ = f.GetDuration("session-ttl")
	cfg.LockTTL, _ = f.GetDuration("lock-ttl")
	cfg.EncryptionKey, _ = f.GetString("encryption-key")
	cfg.FallbackKeys, _ = f.GetStringSlice("fallback-keys")
	cfg.RedactFreeText, _ = f.GetBool("redact-free-text")

	if f.Lookup("addr") != nil {
		cfg.HTTPAddr, _ = f.GetString("addr")
		cfg.CORSOrigins, _ = f.GetStringSlice("cors-origins")
		cfg.Metrics, _ = f.GetBool("metrics")
	}
	return cfg
}

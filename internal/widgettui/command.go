package widgettui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chatdock/internal/auth"
	"chatdock/internal/config"
	"chatdock/internal/logging"
)

// localAuthenticator is the standalone binary's identity provider: it
// accepts any non-empty email and derives the display name from it. Hosts
// embedding the widget pass their own Authenticator to Run.
type localAuthenticator struct{}

func (localAuthenticator) Login(_ context.Context, cred auth.Credentials) (string, string, error) {
	email := strings.TrimSpace(cred.Email)
	if email == "" || !strings.Contains(email, "@") {
		return "", "", &auth.ProviderError{Code: auth.CodeInvalidEmail}
	}
	return email, email[:strings.Index(email, "@")], nil
}

func (localAuthenticator) Logout(context.Context) error {
	return nil
}

// Execute runs the chatdock terminal UI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var (
		configFile string
		database   string
		logLevel   string
		email      string
	)
	cmd := &cobra.Command{
		Use:           "chatdock",
		Short:         "chatdock terminal UI",
		Long:          "Bubbletea-based terminal host for the chatdock widget core.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			if configFile != "" {
				loader.SetConfigFile(configFile)
			}
			cfg, err := loader.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if database != "" {
				cfg.Database.Path = database
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})

			return Run(cfg, localAuthenticator{}, auth.Credentials{Email: email})
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().StringVar(&database, "database", "", "SQLite database path override")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.Flags().StringVar(&email, "email", "", "email to log in with at startup")
	return cmd
}

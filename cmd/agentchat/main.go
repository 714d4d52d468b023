package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/renatogalera/agentchat/pkg/agentapi"
	"github.com/renatogalera/agentchat/pkg/config"
	"github.com/renatogalera/agentchat/pkg/session"
)

const serverURLEnvVar = "AGENTCHAT_SERVER_URL"

var (
	flagServer string
	flagApp    string
	flagUser   string
	flagDebug  bool
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentchat",
		Short: "Terminal chat client for agent API servers",
		Long: `agentchat connects to an agent API server, keeps conversational
sessions on it, and streams assistant replies into an interactive TUI.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: runChatCommand,
	}

	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "Agent server base URL (or set "+serverURLEnvVar+")")
	cmd.PersistentFlags().StringVar(&flagApp, "app", "", "Agent application name")
	cmd.PersistentFlags().StringVar(&flagUser, "user", "", "User identifier on the server")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	cmd.Flags().BoolVar(&flagResume, "resume", false, "Pick an existing session to resume")

	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newSessionsCmd())

	return cmd
}

// clientEnv bundles everything a command needs to talk to the server.
type clientEnv struct {
	cfg     *config.Config
	api     *agentapi.Client
	store   *session.Store
	timeout time.Duration
}

func setupEnvironment() (*clientEnv, error) {
	cfg, err := config.LoadOrCreateConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	mgr := config.NewConfigManager(cfg)
	mgr.RegisterFlag("serverURL", config.ResolveServerURL(flagServer, serverURLEnvVar, cfg))
	mgr.RegisterFlag("appName", flagApp)
	mgr.RegisterFlag("userId", flagUser)
	cfg = mgr.MergeConfiguration()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout, err := cfg.ParsedStreamTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid streamTimeout: %w", err)
	}

	return &clientEnv{
		cfg:     cfg,
		api:     agentapi.NewClient(cfg.ServerURL, cfg.AppName, cfg.UserID),
		store:   session.NewStore(),
		timeout: timeout,
	}, nil
}

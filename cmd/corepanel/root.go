package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-corepanel/internal/config"
	"github.com/goliatone/go-corepanel/internal/logging"
	"github.com/goliatone/go-corepanel/internal/tui"
	"github.com/goliatone/go-corepanel/pkg/panel"
	"github.com/goliatone/go-corepanel/pkg/rpc"
)

var (
	configPath string
	address    string
	logLevel   string

	cfg    config.Config
	logger = logging.Discard()
	closer io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "corepanel",
	Short: "Terminal control panel for a proxy core and its extensions",
	Long: `corepanel talks to a running core over gRPC. Without a subcommand it opens
the interactive panel: the extension list, extension sessions and the core
connection page.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("address") {
			loaded.Address = strings.TrimSpace(address)
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		// The interactive panel owns the terminal; only log when a file is set.
		out := io.Writer(os.Stderr)
		if cmd == cmd.Root() && cfg.Log.File == "" {
			out = io.Discard
		}
		l, c, err := logging.New(cfg.Log, out)
		if err != nil {
			return err
		}
		logger, closer = l, c
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closer != nil {
			return closer.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		content, err := readOptional(cfg.Core.ConfigPath)
		if err != nil {
			return err
		}
		settings, err := readOptional(cfg.Core.SettingsPath)
		if err != nil {
			return err
		}

		client, p, err := openPanel()
		if err != nil {
			return err
		}
		defer client.Close()
		defer p.Close()

		return tui.Run(ctx, p, tui.Options{Config: content, Settings: settings})
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default $"+config.EnvConfig+" or ~/.corepanel/config.yaml)")
	flags.StringVarP(&address, "address", "a", "", "core gRPC address")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(extensionsCmd)
	rootCmd.AddCommand(coreCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(devcoreCmd)
}

func dial() (*rpc.Client, error) {
	client, err := rpc.Dial(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("connect to core at %s: %w", cfg.Address, err)
	}
	return client, nil
}

func openPanel() (*rpc.Client, *panel.Panel, error) {
	client, err := dial()
	if err != nil {
		return nil, nil, err
	}
	p := panel.New(client.Extensions, client.Core,
		panel.WithLogger(logger),
		panel.WithReconnectDelay(cfg.ReconnectDelay.Std()),
	)
	return client, p, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

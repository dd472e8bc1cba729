package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-corepanel/pkg/monitor"
)

var coreCmd = &cobra.Command{
	Use:   "core",
	Short: "Start, stop and watch the core",
}

var coreStartCmd = &cobra.Command{
	Use:   "start [config-file]",
	Short: "Send settings, parse the configuration and start the core",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Core.ConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("no configuration file: pass one or set core.config_path")
		}
		content, err := readOptional(path)
		if err != nil {
			return err
		}
		settings, err := readOptional(cfg.Core.SettingsPath)
		if err != nil {
			return err
		}

		client, err := dial()
		if err != nil {
			return err
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		m := monitor.New(client.Core, monitor.WithLogger(logger), monitor.WithChangeHook(printUpdate(out)))
		if _, err := m.Connect(cmd.Context(), monitor.Request{Settings: settings, Config: content}); err != nil {
			return err
		}
		return nil
	},
}

var coreStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the core",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial()
		if err != nil {
			return err
		}
		defer client.Close()

		m := monitor.New(client.Core, monitor.WithLogger(logger), monitor.WithChangeHook(printUpdate(cmd.OutOrStdout())))
		_, err = m.Stop(cmd.Context())
		return err
	},
}

var coreWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow core status, reconnecting when the stream ends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial()
		if err != nil {
			return err
		}
		defer client.Close()

		m := monitor.New(client.Core,
			monitor.WithLogger(logger),
			monitor.WithReconnectDelay(cfg.ReconnectDelay.Std()),
			monitor.WithChangeHook(printUpdate(cmd.OutOrStdout())),
		)
		return m.Run(cmd.Context())
	},
}

func printUpdate(w io.Writer) func(monitor.Update) {
	return func(u monitor.Update) {
		line := string(u.State)
		if u.Indicator.Visible {
			line = fmt.Sprintf("%s (%s)", line, u.Indicator.Text)
		}
		if u.Info.Message != "" {
			line = fmt.Sprintf("%s: %s", line, u.Info.Message)
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	coreCmd.AddCommand(coreStartCmd)
	coreCmd.AddCommand(coreStopCmd)
	coreCmd.AddCommand(coreWatchCmd)
}

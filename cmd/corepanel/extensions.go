package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var extensionsCmd = &cobra.Command{
	Use:     "extensions",
	Aliases: []string{"ext"},
	Short:   "List and toggle core extensions",
}

var extensionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the extensions the core hosts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, p, err := openPanel()
		if err != nil {
			return err
		}
		defer client.Close()
		defer p.Close()

		rows, err := p.ShowExtensionList(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATE\tTITLE\tDESCRIPTION")
		for _, row := range rows {
			state := "off"
			if row.Enabled {
				state = "on"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.ID, state, row.Title, row.Description)
		}
		return w.Flush()
	},
}

func toggleCmd(use string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("%s an extension", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, p, err := openPanel()
			if err != nil {
				return err
			}
			defer client.Close()
			defer p.Close()

			if err := p.SetEnabled(cmd.Context(), args[0], enable); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %sd\n", args[0], use)
			return nil
		},
	}
}

func init() {
	extensionsCmd.AddCommand(extensionsListCmd)
	extensionsCmd.AddCommand(toggleCmd("enable", true))
	extensionsCmd.AddCommand(toggleCmd("disable", false))
}

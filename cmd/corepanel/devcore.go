package main

import (
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/goliatone/go-corepanel/pkg/devcore"
)

var devcoreListen string

var devcoreCmd = &cobra.Command{
	Use:   "devcore",
	Short: "Serve an in-memory core with sample extensions",
	Long: `devcore serves both core services with the hello, ticker and sandbox
extensions so the panel can be exercised without a real core.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := devcoreListen
		if addr == "" {
			addr = cfg.DevCore.Listen
		}
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		srv := devcore.New(
			devcore.WithLogger(logger),
			devcore.WithExtensions(devcore.Samples()...),
			devcore.WithStartDelay(cfg.DevCore.StartDelay.Std()),
		)
		go func() {
			<-cmd.Context().Done()
			srv.Shutdown()
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "devcore listening on %s\n", lis.Addr())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	},
}

func init() {
	devcoreCmd.Flags().StringVarP(&devcoreListen, "listen", "l", "", "listen address (default from config)")
}

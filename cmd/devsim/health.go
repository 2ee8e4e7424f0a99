package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devsim/internal/client"
	"github.com/alfredjeanlab/devsim/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the devsim server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		grpcAddr, _ := cmd.Flags().GetString("grpc")
		if grpcAddr == "" {
			grpcAddr = os.Getenv("DEVSIM_GRPC_SERVER")
		}
		if grpcAddr == "" {
			grpcAddr = activeRemoteGRPCAddr()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		out := map[string]string{}
		status, err := devsimClient.Health(ctx)
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		out["http"] = status

		if grpcAddr != "" {
			hc, err := client.NewGRPCHealthClient(grpcAddr)
			if err != nil {
				return err
			}
			defer hc.Close()
			gs, err := hc.Check(ctx, "")
			if err != nil {
				return fmt.Errorf("checking gRPC health: %w", err)
			}
			out["grpc"] = gs
		}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "HTTP: %s\n", ui.RenderStatus(out["http"]))
			if gs, ok := out["grpc"]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "gRPC: %s\n", ui.RenderStatus(gs))
			}
		}

		if out["http"] != "OK" {
			return fmt.Errorf("unhealthy: %s", out["http"])
		}
		if gs, ok := out["grpc"]; ok && gs != "SERVING" {
			return fmt.Errorf("gRPC unhealthy: %s", gs)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().String("grpc", "", "also check the gRPC health service at this address")
}

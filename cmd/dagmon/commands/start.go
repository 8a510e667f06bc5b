package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagbft/dagmon/config"
	"github.com/dagbft/dagmon/libs/log"
	dmos "github.com/dagbft/dagmon/libs/os"
	"github.com/dagbft/dagmon/node"
)

// NewStartCmd returns the command that runs the harness node. SIGINT and
// SIGTERM both trigger the identical graceful shutdown: the node stops, the
// reporter emits its final bandwidth summary, and the process exits.
func NewStartCmd(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the dagmon harness node",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := node.New(conf, logger)
			if err != nil {
				return fmt.Errorf("failed to create node: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			dmos.TrapSignal(logger, func() {
				cancel()
				if n.IsRunning() {
					if err := n.Stop(); err != nil {
						logger.Error("error stopping node", "err", err)
					}
				}
			})

			if err := n.Start(ctx); err != nil {
				return fmt.Errorf("failed to start node: %w", err)
			}

			logger.Info("started node",
				"moniker", conf.Moniker,
				"cert_ingress", n.CertIngressAddr(),
				"telemetry_mode", conf.Telemetry.Mode,
				"fault_injection", conf.Fault.Enabled,
			)

			n.Wait()
			return nil
		},
	}

	cmd.Flags().String("cert-laddr", conf.CertListenAddress,
		"listen address for the ordered certificate stream")
	cmd.Flags().String("telemetry.mode", conf.Telemetry.Mode,
		"telemetry reporting mode (interval | wave)")
	cmd.Flags().Bool("fault.enabled", conf.Fault.Enabled,
		"run the fault-injection window scheduler")

	return cmd
}

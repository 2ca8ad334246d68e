// Copyright (c) 2015-2021 MinIO, Inc.
//
// This file is part of MinIO Object Storage stack
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/cli"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frugalos/frugalos/internal/config"
	"github.com/frugalos/frugalos/internal/logger"
)

const defaultTickInterval = 100 * time.Millisecond

// ServerFlags are the "frugalos server" command's flags. Grounded on
// cmd/server-main.go's ServerFlags, reduced to this daemon's actual inputs: a
// config file path in place of MinIO's pool-of-directories arguments, since a
// frugalos node owns exactly one device.
var ServerFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config",
		Usage:  "path to the node's YAML configuration file",
		EnvVar: "FRUGALOS_CONFIG",
		Value:  "frugalos.yaml",
	},
	cli.DurationFlag{
		Name:   "tick-interval",
		Usage:  "how often the synchronizer drives its queues forward",
		Value:  defaultTickInterval,
		Hidden: true,
	},
}

var serverCmd = cli.Command{
	Name:   "server",
	Usage:  "start a frugalos storage node",
	Flags:  ServerFlags,
	Action: serverMain,
	CustomHelpTemplate: `NAME:
  {{.HelpName}} - {{.Usage}}

USAGE:
  {{.HelpName}} {{if .VisibleFlags}}[FLAGS]{{end}}
{{if .VisibleFlags}}
FLAGS:
  {{range .VisibleFlags}}{{.}}
  {{end}}{{end}}
EXAMPLES:
  1. Start a node from ./frugalos.yaml
     {{.Prompt}} {{.HelpName}}

  2. Start a node from an explicit config file
     {{.Prompt}} {{.HelpName}} --config /etc/frugalos/node1.yaml
`,
}

// serverMain is the Action for "frugalos server": load configuration, wire up
// the device/storage client/synchronizer, and serve the control RPC until a
// termination signal arrives. Grounded on cmd/server-main.go's serverMain,
// reduced to this daemon's actual subsystem count (one device, one
// synchronizer, one RPC mux; no object layer, no IAM, no console).
func serverMain(cliCtx *cli.Context) error {
	zapLogger, err := logger.NewProduction()
	if err != nil {
		return fmt.Errorf("frugalos: init logger: %w", err)
	}
	logger.SetLogger(zapLogger)

	if err := setMaxResources(); err != nil {
		logger.Info("could not raise resource limits", "error", err.Error())
	}

	nodeCfg, err := config.Load(cliCtx.String("config"))
	if err != nil {
		return err
	}

	sync, rpcHandler, err := buildNode(nodeCfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	go sync.Run(ctx, cliCtx.Duration("tick-interval"))

	httpServer := &http.Server{
		Addr:    nodeCfg.RPCBindAddr,
		Handler: rpcHandler,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("control RPC listening", "addr", nodeCfg.RPCBindAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErrCh:
		logger.Error("control RPC server failed", "error", err.Error())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildNode wires a Synchronizer and its control RPC handler from a loaded
// node configuration: the device, the storage client matching the configured
// storage mode, the activity probe, and the goroutine spawner.
func buildNode(nodeCfg config.Node) (*Synchronizer, http.Handler, error) {
	nodeID := NodeID(nodeCfg.NodeID)
	if nodeID == "" {
		nodeID = NewNodeID()
	}

	device, err := NewLocalDevice(nodeCfg.DeviceRoot, 0)
	if err != nil {
		return nil, nil, err
	}

	client, err := buildStorageClient(nodeCfg)
	if err != nil {
		return nil, nil, err
	}

	initialThreshold := NewRepairIdlenessDisabled()
	if !nodeCfg.Repair.RepairIdleness.Disabled && nodeCfg.Repair.RepairIdleness.ThresholdSeconds != nil {
		initialThreshold = NewRepairIdlenessThreshold(nodeCfg.Repair.RepairIdleness.ThresholdDuration())
	}

	sync := NewSynchronizer(
		nodeID,
		device,
		client,
		NewClockActivityProbe(),
		GoroutineSpawner,
		prometheus.DefaultRegisterer,
		initialThreshold,
		nodeCfg.SegmentGCStep,
	)
	sync.SetRepairConfig(RepairConfig{
		RepairConcurrencyLimit:    &nodeCfg.Repair.RepairConcurrencyLimit,
		SegmentGCConcurrencyLimit: &nodeCfg.Repair.SegmentGCConcurrencyLimit,
	})

	return sync, NewRPCHandler(sync, device), nil
}

func buildStorageClient(nodeCfg config.Node) (StorageClient, error) {
	switch nodeCfg.Storage {
	case config.StorageMetadata:
		return NewMetadataOnlyClient(), nil
	case config.StorageReplicated:
		peers := peerClientsFromAddrs(nodeCfg.Peers)
		return NewReplicatedStorageClient(replicaFetchers(peers)), nil
	case config.StorageDispersed:
		total := nodeCfg.ErasureCoding.DataFragmentCount + nodeCfg.ErasureCoding.TolerableFaults
		if len(nodeCfg.Peers) < total {
			return nil, fmt.Errorf("frugalos: dispersed storage needs %d peers, got %d", total, len(nodeCfg.Peers))
		}
		peers := peerClientsFromAddrs(nodeCfg.Peers[:total])
		return NewDispersedStorageClient(
			nodeCfg.ErasureCoding.DataFragmentCount,
			nodeCfg.ErasureCoding.TolerableFaults,
			NewShardRouter(peers),
		), nil
	default:
		return nil, fmt.Errorf("frugalos: unknown storage mode %q", nodeCfg.Storage)
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/minio/cli"
)

const defaultRPCBindAddr = "127.0.0.1:14278"

var repairIdlenessThresholdFlag = cli.StringFlag{
	Name:  "repair-idleness-threshold",
	Usage: "minimum idle duration, in seconds, before repair jobs are admitted",
}

var disableRepairIdlenessFlag = cli.BoolFlag{
	Name:  "disable-repair-idleness",
	Usage: "always admit repair jobs regardless of idleness; overrides --repair-idleness-threshold",
}

var setRepairConfigCmd = cli.Command{
	Name:  "set-repair-config",
	Usage: "update a running node's repair configuration",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "rpc-addr",
			Usage: "node control RPC address",
			Value: defaultRPCBindAddr,
		},
		repairIdlenessThresholdFlag,
		disableRepairIdlenessFlag,
		cli.IntFlag{
			Name:  "repair-concurrency-limit",
			Usage: "maximum number of repair jobs in flight at once (0 leaves unchanged)",
		},
		cli.IntFlag{
			Name:  "segment-gc-concurrency-limit",
			Usage: "versions examined per segment GC tick (0 leaves unchanged)",
		},
	},
	Action: setRepairConfigMain,
}

// setRepairConfigMain is the "frugalos set-repair-config" Action. Grounded
// directly on original_source/src/command/set_repair_config.rs's
// get_repair_config_from_matches: --disable-repair-idleness always wins over
// --repair-idleness-threshold regardless of flag order (P9), and a negative
// threshold is rejected here rather than forwarded (the resolved open
// question the Rust TODO left unaddressed).
func setRepairConfigMain(ctx *cli.Context) error {
	req := repairConfigRequest{}

	if n := ctx.Int("repair-concurrency-limit"); n > 0 {
		v := uint64(n)
		req.RepairConcurrencyLimit = &v
	}
	if n := ctx.Int("segment-gc-concurrency-limit"); n > 0 {
		v := uint64(n)
		req.SegmentGCConcurrencyLimit = &v
	}

	switch {
	case ctx.Bool("disable-repair-idleness"):
		disabled := true
		req.RepairIdlenessDisabled = &disabled
	case ctx.IsSet("repair-idleness-threshold"):
		secs, err := strconv.ParseFloat(ctx.String("repair-idleness-threshold"), 64)
		if err != nil {
			return fmt.Errorf("frugalos: --repair-idleness-threshold must be a float: %w", err)
		}
		if secs < 0 {
			return fmt.Errorf("frugalos: --repair-idleness-threshold must be non-negative, got %v", secs)
		}
		req.RepairIdlenessThreshold = &secs
	}

	return postRepairConfig(ctx.String("rpc-addr"), req)
}

func postRepairConfig(rpcAddr string, req repairConfigRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://%s/internal/synchronizer/repair-config", rpcAddr)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("frugalos: set-repair-config: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		var errBody rpcErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("frugalos: set-repair-config: node returned %s: %s", resp.Status, errBody.Error)
	}
	fmt.Println("repair config updated")
	return nil
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print a node's synchronizer status",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "rpc-addr",
			Usage: "node control RPC address",
			Value: defaultRPCBindAddr,
		},
	},
	Action: statusMain,
}

func statusMain(ctx *cli.Context) error {
	url := fmt.Sprintf("http://%s/internal/synchronizer/status", ctx.String("rpc-addr"))
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("frugalos: status: %w", err)
	}
	defer resp.Body.Close()

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("frugalos: status: decode response: %w", err)
	}

	fmt.Printf("node:                %s\n", status.NodeID)
	fmt.Printf("repair queue:        %s pending, %s in flight\n",
		humanize.Comma(int64(status.RepairQueuePending)),
		humanize.Comma(int64(status.RepairQueueInFlight)))
	fmt.Printf("segment gc running:  %v\n", status.SegmentGCInProgress)
	return nil
}

// Command canlink-loopback hosts one or two virtual OpenLCB nodes on an
// in-process loopback CAN bus and drives them to login, printing each
// node's progress as it happens. It has no real hardware dependency; it
// exists to exercise the stack end to end without a CAN adapter attached.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openlcb/canlink"
	"github.com/openlcb/canlink/internal/candrv"
	"github.com/openlcb/canlink/internal/logging"
	"github.com/openlcb/canlink/internal/node"
)

func main() {
	var (
		nodeIDStr = flag.String("node-id", "02.01.57.00.00.01", "Node ID, as six dot-separated hex bytes")
		peer      = flag.Bool("peer", false, "Also host a second node on the same simulated bus")
		verbose   = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	nodeID, err := parseNodeID(*nodeIDStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -node-id %q: %v\n", *nodeIDStr, err)
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	driver := candrv.NewLoopbackDriver(32)
	stack := canlink.NewStack(canlink.StackParams{Driver: driver})

	n, err := stack.AddNode(nodeID, node.Params{})
	if err != nil {
		logger.Error("failed to add node", "error", err)
		os.Exit(1)
	}
	logger.Info("hosting node", "node_id", formatNodeID(nodeID))

	var peerStack *canlink.Stack
	var peerNode *node.Node
	if *peer {
		peerDriver := candrv.NewLoopbackDriver(32)
		candrv.Attach(driver, peerDriver)
		peerStack = canlink.NewStack(canlink.StackParams{Driver: peerDriver})
		peerID := nodeID + 1
		peerNode, err = peerStack.AddNode(peerID, node.Params{})
		if err != nil {
			logger.Error("failed to add peer node", "error", err)
			os.Exit(1)
		}
		logger.Info("hosting peer node", "node_id", formatNodeID(peerID))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(canlink.TickInterval)
	defer ticker.Stop()

	reported := false
	peerReported := false
	for {
		select {
		case <-ticker.C:
			stack.Tick()
			if peerStack != nil {
				peerStack.Tick()
			}
			if !reported && n.State == node.Run {
				reported = true
				logger.Info("node logged in", "alias", fmt.Sprintf("0x%03X", n.Alias))
			}
			if peerNode != nil && !peerReported && peerNode.State == node.Run {
				peerReported = true
				logger.Info("peer node logged in", "alias", fmt.Sprintf("0x%03X", peerNode.Alias))
			}
		case <-sigCh:
			logger.Info("received shutdown signal")
			return
		}
	}
}

// parseNodeID parses a dot-separated six-hex-byte Node ID like
// "02.01.57.00.00.01" into its 48-bit integer form.
func parseNodeID(s string) (uint64, error) {
	var b [6]byte
	n, err := fmt.Sscanf(s, "%02x.%02x.%02x.%02x.%02x.%02x", &b[0], &b[1], &b[2], &b[3], &b[4], &b[5])
	if err != nil || n != 6 {
		return 0, fmt.Errorf("expected six dot-separated hex bytes")
	}
	var id uint64
	for _, v := range b {
		id = (id << 8) | uint64(v)
	}
	if id == 0 {
		return 0, fmt.Errorf("node id must be non-zero")
	}
	return id, nil
}

func formatNodeID(id uint64) string {
	return fmt.Sprintf("%02X.%02X.%02X.%02X.%02X.%02X",
		byte(id>>40), byte(id>>32), byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// Command trafficsim serves the traffic simulator over a websocket: each
// connection drives its own simulation via the text command protocol and
// reads back the binary frame protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trafficsim/config"
	"trafficsim/internal/simulation"
	"trafficsim/server"
)

var (
	host       *string
	port       *string
	configPath *string
	addr       string
)

// TODO: per 12-factor rules these could also come from env vars; flags are
// fine for a single-process deployment.
func init() {
	host = flag.String("host", "", "the host ip to bind")
	port = flag.String("port", "8080", "the host port to bind")
	configPath = flag.String("config", "", "path to a simulation tuning config.yaml (optional)")
	flag.Parse()
	addr = *host + ":" + *port
}

func runApp() error {
	simCfg := simulation.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.FromYaml(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		simCfg = loaded
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// simCfg seeds every connection's session (internal/simulation.Simulation,
	// via internal/session.Session); a "start" command may still override the
	// tick delta per the protocol, but inherits simCfg's lane-decision period.
	srv := server.NewServer(addr, simCfg)
	log.Printf("trafficsim: listening on %s", addr)
	return srv.Serve(ctx)
}

func main() {
	if err := runApp(); err != nil {
		log.Fatal(err)
	}
}

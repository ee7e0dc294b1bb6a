// Command lsmidx-debugd runs the optional debug HTTP sidecar (internal/debugapi)
// around an LSM index rooted at -data.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kurenai-dev/lsmidx/internal/debugapi"
	"github.com/kurenai-dev/lsmidx/internal/lsm"
)

func main() {
	var (
		port = flag.String("port", "8080", "port to run the debug server on")
		data = flag.String("data", "lsmidx-data", "path to the index data directory")
		help = flag.Bool("help", false, "show help")
	)
	flag.Parse()

	if *help {
		fmt.Println("lsmidx-debugd - debug HTTP sidecar for an LSM index")
		fmt.Println("\nUsage:")
		fmt.Println("  lsmidx-debugd [options]")
		fmt.Println("\nOptions:")
		flag.PrintDefaults()
		fmt.Println("\nSet LSMIDX_DEBUG_TOKEN to the operator bootstrap credential before starting.")
		os.Exit(0)
	}

	if os.Getenv("LSMIDX_DEBUG_TOKEN") == "" {
		log.Println("warning: LSMIDX_DEBUG_TOKEN is unset, /api/v1/login will reject all requests")
	}

	index, err := lsm.New(*data)
	if err != nil {
		log.Fatalf("failed to open index at %s: %v", *data, err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Printf("error closing index: %v", err)
		}
	}()

	server := debugapi.NewServer(index, *port)
	if err := server.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

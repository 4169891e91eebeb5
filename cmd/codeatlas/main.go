package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmaring/codeatlas-mcp/internal/mcp"
	"github.com/dmaring/codeatlas-mcp/internal/vectorstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	watch := flag.Bool("watch", false, "watch the project and keep the index current")
	root := flag.String("root", ".", "project root to serve")
	flag.Parse()

	if *showVersion {
		fmt.Printf("CodeAtlas MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", vectorstore.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", vectorstore.DriverName)
		fmt.Printf("Vector Extension: %v\n", vectorstore.VectorExtensionAvailable)
		os.Exit(0)
	}

	// stdout carries the MCP protocol; everything else goes to stderr
	log.SetOutput(os.Stderr)
	log.Printf("CodeAtlas MCP Server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s, Vector Extension: %v",
		vectorstore.BuildMode, vectorstore.DriverName, vectorstore.VectorExtensionAvailable)

	server, err := mcp.NewServer(*root)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *watch {
		w, err := server.StartWatcher(ctx)
		if err != nil {
			log.Fatalf("Failed to start watcher: %v", err)
		}
		// the watcher's goroutines exit on cancel; Close waits for them
		defer func() {
			cancel()
			_ = w.Close()
		}()
		log.Printf("Watching %s for changes", *root)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

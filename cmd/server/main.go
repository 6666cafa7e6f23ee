package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/GonzoDMX/rag-anywhere/internal/api"
	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/pkg/tldr"
)

func main() {
	// 1. Setup Logger
	logger := log.New(os.Stdout, "[RAG-SERVER] ", log.LstdFlags)

	// 2. Load configuration
	configPath := flag.String("config", "", "path to a rag-anywhere.yaml config file")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// 3. Initialize dependencies: store, embedding/chat engines, pipeline.
	logger.Println("initializing service...")
	svc, err := tldr.Init(cfg)
	if err != nil {
		logger.Fatalf("init service: %v", err)
	}
	defer svc.Shutdown()

	// 4. Setup router
	server := api.NewServer(svc, cfg, logger)

	// 5. Start server
	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generation can run long
		IdleTimeout:  60 * time.Second,
	}

	logger.Printf("server starting on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Fatal(err)
	}
}

// Command scribe-mcp serves the session journal to MCP clients over stdio.
package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/scribe/internal/config"
	"github.com/jwulff/scribe/internal/db"
	"github.com/jwulff/scribe/internal/mcptools"
	"github.com/jwulff/scribe/internal/storage"
)

var version = "dev"

func main() {
	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	config.LoadDefaultEnv()
	cfg := config.LoadConfigFromEnv()

	journal, err := db.Open(db.DefaultDBPath(cfg.DataDir))
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	tools := mcptools.New(journal, storage.New(cfg.DataDir))
	if err := server.ServeStdio(mcptools.NewServer(tools, version)); err != nil {
		log.Printf("serve: %v", err)
	}
}

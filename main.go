package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"pagesmith/internal/catalog"
	"pagesmith/internal/collections"
	"pagesmith/internal/gitstore"
	mcpserver "pagesmith/internal/mcp"
	"pagesmith/internal/service"
	"pagesmith/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	homeDir, _ := os.UserHomeDir()
	dataDir := os.Getenv("PAGESMITH_DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share", "pagesmith")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	db, err := storage.New(filepath.Join(dataDir, "pagesmith.db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	drafts := storage.NewDraftStore(db)

	siteDir := os.Getenv("PAGESMITH_SITE_DIR")
	if siteDir == "" {
		siteDir = filepath.Join(dataDir, "site")
	}
	store, err := gitstore.Open(gitstore.Options{Dir: siteDir})
	if err != nil {
		log.Fatalf("Failed to open site repository: %v", err)
	}

	provider := catalog.NewFileProvider(filepath.Join(dataDir, "components"))
	if err := provider.Watch(); err != nil {
		// Editing still works without live catalog reloads.
		log.Printf("catalog: watch disabled: %v", err)
	}
	defer provider.Close()

	emitter := service.NoopEmitter{}
	editors := service.NewEditorService(store, drafts, provider, emitter, 0)
	content := service.NewContentService(loadContentSources(dataDir))
	defer content.Close()

	janitor := service.NewDraftJanitor(drafts, "")
	if err := janitor.Start(); err != nil {
		log.Printf("drafts: janitor disabled: %v", err)
	}
	defer janitor.Stop()

	srv := mcpserver.New(mcpserver.Deps{
		Editors:  editors,
		Content:  content,
		Provider: provider,
	})
	defer srv.Close()

	log.Println("[MCP] Starting standalone stdio server...")
	done := make(chan error, 1)
	go func() { done <- srv.ServeStdio() }()

	select {
	case <-ctx.Done():
		log.Println("[MCP] Shutting down...")
	case err := <-done:
		if err != nil {
			log.Fatalf("MCP server error: %v", err)
		}
	}
}

// loadContentSources reads the optional content source config. The file is a
// JSON array of collections.Source objects.
func loadContentSources(dataDir string) []collections.Source {
	raw, err := os.ReadFile(filepath.Join(dataDir, "content_sources.json"))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("content: read sources config: %v", err)
		}
		return nil
	}
	var sources []collections.Source
	if err := json.Unmarshal(raw, &sources); err != nil {
		log.Printf("content: parse sources config: %v", err)
		return nil
	}
	return sources
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"mangastore/internal/manga"
	"mangastore/internal/scraper"
	"mangastore/pkg/database"
)

func main() {
	var (
		outPath = flag.String("out", "data/mirror.json", "output JSON path")
		limit   = flag.Int("limit", 200, "how many titles to export")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	items, err := manga.NewStore(db, nil).List(ctx, manga.ListQuery{Limit: *limit})
	if err != nil {
		log.Fatalf("list failed: %v", err)
	}

	out := make([]scraper.MirrorTitle, 0, len(items))
	for _, m := range items {
		out = append(out, scraper.MirrorTitleFrom(m))
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatalf("mkdir failed: %v", err)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("marshal failed: %v", err)
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Fatalf("write failed: %v", err)
	}

	log.Printf("wrote %d titles to %s", len(out), *outPath)
}

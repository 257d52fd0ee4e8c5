package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"mangastore/internal/manga"
	"mangastore/internal/scraper"
	"mangastore/pkg/database"
	"mangastore/pkg/models"
)

func main() {
	var (
		out      = flag.String("out", "data/manga.csv", "output CSV path")
		sourceID = flag.Int64("source", 0, "only export this source (0 = all)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	items, err := listAll(ctx, manga.NewStore(db, nil), manga.ListQuery{SourceID: *sourceID})
	if err != nil {
		log.Fatalf("list failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	if err := scraper.WriteCSV(f, items); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("exported %d manga to %s", len(items), *out)
}

// listAll pages through the store.
func listAll(ctx context.Context, store *manga.Store, q manga.ListQuery) ([]models.Manga, error) {
	const page = 500
	var all []models.Manga
	for offset := 0; ; offset += page {
		q.Limit, q.Offset = page, offset
		items, err := store.List(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < page {
			return all, nil
		}
	}
}

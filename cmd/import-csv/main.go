package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mangastore/internal/manga"
	"mangastore/internal/scraper"
	"mangastore/pkg/database"
)

func main() {
	var (
		in       = flag.String("in", "data/manga.csv", "input CSV path")
		sourceID = flag.Int64("source", 100, "source id the rows belong to")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	src := &scraper.CSVFile{Path: *in, SourceID: *sourceID}
	res, err := scraper.NewRefresher(manga.NewStore(db, nil), src).Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	if len(res.Failed) > 0 {
		log.Fatalf("import failed: could not read %s", *in)
	}

	log.Printf("imported %s into source %d: inserted=%d updated=%d skipped=%d",
		*in, *sourceID, res.Inserted, res.Updated, res.Skipped)
}

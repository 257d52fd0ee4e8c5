package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"mangastore/internal/feed"
)

// filter selects which feed events get printed.
type filter struct {
	types   map[string]bool
	mangaID int64
}

func (f filter) match(ev feed.Event) bool {
	if len(f.types) > 0 && !f.types[ev.Type] {
		return false
	}
	// purges carry no id and may affect any row
	if f.mangaID != 0 && ev.MangaID != f.mangaID && ev.Type != "manga.purge" {
		return false
	}
	return true
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP feed address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	types := flag.String("type", "", "comma-separated event types, e.g. manga.insert,manga.purge")
	mangaID := flag.Int64("manga", 0, "only events for this manga id")
	flag.Parse()

	f := filter{mangaID: *mangaID}
	if *types != "" {
		f.types = map[string]bool{}
		for _, t := range strings.Split(*types, ",") {
			f.types[strings.TrimSpace(t)] = true
		}
	}

	for {
		if err := run(*addr, *pretty, f); err != nil {
			log.Printf("[sync-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool, f filter) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var ev feed.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			// not JSON? print raw
			fmt.Println(string(line))
			continue
		}
		if ev.Type == "welcome" {
			log.Printf("[sync-client] %s", line)
			continue
		}
		if !f.match(ev) {
			continue
		}

		if !pretty {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(ev, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

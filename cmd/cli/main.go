package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mangastore/internal/manga"
	"mangastore/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type mangaListResponse struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []models.Manga `json:"items"`
}

func main() {
	global := flag.NewFlagSet("mangastore", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	var rest []string
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "manga":
		handleManga(ctx, client, *baseURL, *tokenPath, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		clientID := fs.String("client", "cli", "client id")
		key := fs.String("key", os.Getenv("MANGASTORE_CLIENT_KEY"), "shared client key")
		_ = fs.Parse(args)
		if *key == "" {
			log.Fatal("key is required")
		}

		var resp tokenData
		payload := map[string]string{"client_id": *clientID, "key": *key}
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/token", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: mangastore auth <login|logout>")
	}
}

func handleManga(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("manga list", flag.ExitOnError)
		query := fs.String("q", "", "keyword")
		source := fs.Int64("source", 0, "source id filter")
		favorite := fs.String("favorite", "", "true|false filter")
		limit := fs.Int("limit", 50, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		qv := url.Values{}
		if *query != "" {
			qv.Set("q", *query)
		}
		if *source != 0 {
			qv.Set("source", strconv.FormatInt(*source, 10))
		}
		if *favorite != "" {
			qv.Set("favorite", *favorite)
		}
		qv.Set("limit", strconv.Itoa(*limit))
		qv.Set("offset", strconv.Itoa(*offset))

		var resp mangaListResponse
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/manga?"+qv.Encode(), "", nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("manga show", flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		key := fs.String("key", "", "source key (with -source)")
		source := fs.Int64("source", 0, "source id")
		_ = fs.Parse(args)

		var resp models.Manga
		if err := doJSON(ctx, client, http.MethodGet, baseURL+mangaPath(*id, *key, *source, ""), "", nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("manga add", flag.ExitOnError)
		source := fs.Int64("source", 0, "source id")
		key := fs.String("key", "", "source key")
		title := fs.String("title", "", "title")
		author := fs.String("author", "", "author")
		genres := fs.String("genres", "", "comma-separated genres")
		_ = fs.Parse(args)
		if *source == 0 || *key == "" {
			log.Fatal("source and key are required")
		}

		payload := map[string]any{
			"source_id": *source,
			"manga": models.MangaInfo{
				Key:    *key,
				Title:  *title,
				Author: *author,
				Genres: splitList(*genres),
			},
		}
		var resp models.Manga
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/manga", mustToken(tokenPath), payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "flags":
		fs := flag.NewFlagSet("manga flags", flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		flags := fs.Int("set", 0, "flags bitmask")
		_ = fs.Parse(args)
		if *id == 0 {
			log.Fatal("id is required")
		}
		putJSON(ctx, client, baseURL, tokenPath, *id, "flags", map[string]int{"flags": *flags})
	case "favorite":
		fs := flag.NewFlagSet("manga favorite", flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		fav := fs.Bool("set", true, "favorite value")
		_ = fs.Parse(args)
		if *id == 0 {
			log.Fatal("id is required")
		}
		putJSON(ctx, client, baseURL, tokenPath, *id, "favorite", map[string]bool{"favorite": *fav})
	case "details":
		fs := flag.NewFlagSet("manga details", flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		title := fs.String("title", "", "title")
		artist := fs.String("artist", "", "artist")
		author := fs.String("author", "", "author")
		description := fs.String("description", "", "description")
		genres := fs.String("genres", "", "comma-separated genres")
		status := fs.String("status", "", "status")
		cover := fs.String("cover", "", "cover URL")
		_ = fs.Parse(args)
		if *id == 0 {
			log.Fatal("id is required")
		}
		putJSON(ctx, client, baseURL, tokenPath, *id, "details", map[string]any{
			"title":       *title,
			"artist":      *artist,
			"author":      *author,
			"description": *description,
			"genres":      splitList(*genres),
			"status":      *status,
			"cover":       *cover,
		})
	case "purge":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/manga/non-favorites", mustToken(tokenPath), nil, &resp); err != nil {
			log.Fatalf("purge failed: %v", err)
		}
		printJSON(resp)
	case "watch":
		fs := flag.NewFlagSet("manga watch", flag.ExitOnError)
		id := fs.Int64("id", 0, "manga id")
		key := fs.String("key", "", "source key (with -source)")
		source := fs.Int64("source", 0, "source id")
		_ = fs.Parse(args)

		wsURL, err := websocketURL(baseURL, mangaPath(*id, *key, *source, "/watch"))
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		if err := watch(wsURL); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	default:
		log.Fatal("usage: mangastore manga <list|show|add|flags|favorite|details|purge|watch>")
	}
}

// mangaPath addresses a manga either by id or by (key, source).
func mangaPath(id int64, key string, source int64, suffix string) string {
	if id != 0 {
		return "/manga/" + strconv.FormatInt(id, 10) + suffix
	}
	if key == "" || source == 0 {
		log.Fatal("either -id or -key with -source is required")
	}
	qv := url.Values{}
	qv.Set("key", key)
	qv.Set("source", strconv.FormatInt(source, 10))
	return "/manga/lookup" + suffix + "?" + qv.Encode()
}

func putJSON(ctx context.Context, client *http.Client, baseURL, tokenPath string, id int64, field string, payload any) {
	var resp models.Manga
	endpoint := fmt.Sprintf("%s/manga/%d/%s", baseURL, id, field)
	if err := doJSON(ctx, client, http.MethodPut, endpoint, mustToken(tokenPath), payload, &resp); err != nil {
		log.Fatalf("update %s failed: %v", field, err)
	}
	printJSON(resp)
}

func watch(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	for {
		var msg manga.WatchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		printJSON(msg)
		if msg.Type == "error" {
			return fmt.Errorf("subscription ended: %s", msg.Error)
		}
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage() {
	fmt.Println("mangastore <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout")
	fmt.Println("  manga list|show|add|flags|favorite|details|purge|watch")
}

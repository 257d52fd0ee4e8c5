package utils

import (
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
	// ClientKeyHash is a bcrypt hash of the shared key exchanged for tokens.
	ClientKeyHash string
}

type ServerConfig struct {
	HTTPAddr  string
	FeedAddr  string
	GRPCAddr  string
	LogFile   string
	MirrorURL string
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MANGASTORE_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	return AuthConfig{
		JWTSecret:     secret,
		JWTIssuer:     envOr("MANGASTORE_JWT_ISSUER", "mangastore"),
		JWTDuration:   time.Duration(envInt("MANGASTORE_JWT_TTL_HOURS", 24)) * time.Hour,
		ClientKeyHash: os.Getenv("MANGASTORE_CLIENT_KEY_HASH"),
	}
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:  envOr("MANGASTORE_HTTP_ADDR", ":8080"),
		FeedAddr:  envOr("MANGASTORE_FEED_ADDR", ":7070"),
		GRPCAddr:  envOr("MANGASTORE_GRPC_ADDR", ":9090"),
		LogFile:   os.Getenv("MANGASTORE_LOG_FILE"),
		MirrorURL: envOr("MANGASTORE_MIRROR_URL", "http://localhost:9000"),
	}
}

// SetupLogging tees the standard logger into a rotated file when path is
// set. The returned closer flushes and closes that file.
func SetupLogging(path string) io.Closer {
	if strings.TrimSpace(path) == "" {
		return nopCloser{}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, lj))
	return lj
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt falls back to def when the variable is unset or not a positive int.
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mangastore/internal/auth"
	"mangastore/internal/feed"
	"mangastore/internal/health"
	"mangastore/internal/manga"
	"mangastore/pkg/database"
	"mangastore/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()
	logCloser := utils.SetupLogging(srvCfg.LogFile)
	defer logCloser.Close()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	observers := manga.NewRegistry()
	store := manga.NewStore(db, observers)

	// every committed change goes out on the event feed
	hub := feed.NewHub()
	go hub.Forward(ctx, observers.Listen(ctx, 256))
	feedSrv := feed.NewServer(srvCfg.FeedAddr, hub)

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), gin.Logger())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", feed.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "ready",
			"db":            "ok",
			"tcp_clients":   stats.TCPClients,
			"ws_clients":    stats.WSClients,
			"subscriptions": observers.Count(),
		})
	})

	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	auth.NewHandler(authCfg.ClientKeyHash, tokenSvc).RegisterRoutes(router.Group("/auth"))

	mangaHandler := manga.NewHandler(store)
	mangaHandler.RegisterRoutes(router.Group("/manga"))
	mangaHandler.RegisterWriteRoutes(router.Group("/manga", auth.AuthMiddleware(tokenSvc)))

	// grpc.health.v1 for orchestrators, driven by periodic db pings
	checker := health.NewChecker(db)
	go checker.Run(ctx)
	grpcSrv := health.NewGRPCServer(checker)
	grpcLis, err := net.Listen("tcp", srvCfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := feedSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", srvCfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("gRPC health server listening on %s", srvCfg.GRPCAddr)
		if err := grpcSrv.Serve(grpcLis); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := feedSrv.Close(); err != nil {
		log.Printf("feed shutdown error: %v", err)
	}
	grpcSrv.Stop()
	stop()

	wg.Wait()
	log.Println("servers stopped")
}

// requestID tags each request so log lines of one request can be grouped.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

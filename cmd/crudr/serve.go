package crudr

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	mw "github.com/crudr/crudr/pkg/httputil/middleware"
	"github.com/crudr/crudr/pkg/metrics"
	"github.com/crudr/crudr/pkg/rest"
	"github.com/crudr/crudr/pkg/schema"
	"github.com/crudr/crudr/pkg/store/pgstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Introspects the configured database schema and serves every table as a CRUD resource`,
	Run:   runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringP("rest.pg.connString", "c", "", "PostgreSQL connection string")
	f.StringP("rest.listenAddr", "l", "", "REST server listen address")
	f.String("rest.baseURL", "", "Base URL for API endpoints")
	f.String("rest.dbSchema", "", "Database schema to expose")
	f.Int("rest.defaultLimit", 0, "Default page size for list endpoints")
	f.Int("rest.maxLimit", 0, "Maximum page size for list endpoints")
	f.Bool("metrics.enabled", false, "Serve Prometheus metrics")

	viper.BindPFlags(f)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if cfg == nil {
		log.Fatal("Configuration not loaded")
	}

	connString := cfg.REST.PG.ConnString
	if connString == "" {
		connString = os.Getenv("CRUDR_REST_PG_CONN_STRING")
		if connString == "" {
			log.Fatal("PostgreSQL connection string required")
		}
	}

	// flag overrides
	if listenAddr := viper.GetString("rest.listenAddr"); listenAddr != "" {
		cfg.REST.ListenAddr = listenAddr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	models, err := schema.Load(ctx, pool, cfg.REST.DBSchema)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	server := rest.NewServer(pgstore.New(pool),
		rest.WithLogger(logger),
		rest.WithBaseURL(cfg.REST.BaseURL),
	)

	server.AddMiddleware(
		mw.RequestID,
		mw.CORSWithOptions(nil),
	)
	if logLevel != "none" {
		server.AddMiddleware(mw.LoggerWithOptions(&mw.LoggerOptions{Logger: logger}))
	}
	if len(cfg.REST.BasicAuth) > 0 {
		server.AddMiddleware(mw.BasicAuth(cfg.REST.BasicAuth))
	}

	for _, model := range models {
		_, err := server.Register(model, rest.ResourceOptions{
			DefaultLimit:   cfg.REST.DefaultLimit,
			MaxLimit:       cfg.REST.MaxLimit,
			SupportsCreate: true,
			SupportsUpdate: true,
			SupportsDelete: true,
			TotalCacheTTL:  cfg.REST.TotalCacheTTL,
		})
		if err != nil {
			log.Fatalf("Failed to register %s: %v", model.Name, err)
		}
	}

	var wg sync.WaitGroup
	metricsCtx, cancelMetrics := context.WithCancel(ctx)
	defer cancelMetrics()
	if cfg.Metrics.Enabled {
		metrics.StartPrometheusServer(metricsCtx, &wg, &metrics.PromServerOpts{Addr: cfg.Metrics.Addr})
	}

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(cfg.REST.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	cancelMetrics()
	wg.Wait()

	log.Println("Server gracefully stopped")
}

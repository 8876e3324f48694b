package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clotilde/admin-console/internal/adminapi"
	"github.com/clotilde/admin-console/internal/api"
	"github.com/clotilde/admin-console/internal/config"
	"github.com/clotilde/admin-console/internal/csrf"
	"github.com/clotilde/admin-console/internal/dashboard"
	"github.com/clotilde/admin-console/internal/monitoring"
	"github.com/clotilde/admin-console/internal/tui"
)

var version = "dev"

func main() {
	mode := flag.String("mode", "web", "front end to run: web or tui")
	configFile := flag.String("config", os.Getenv("CONSOLE_CONFIG"), "optional YAML config file")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found")
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Load configuration
	cfg := config.Load()
	if *configFile != "" {
		if err := config.LoadFile(cfg, *configFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load config file")
		}
	}

	client := adminapi.New(cfg.Admin, adminapi.WithStatsCache(cfg.Refresh.StatsCacheTTL))

	svc := dashboard.NewService(client, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "tui":
		runTUI(ctx, svc)
	case "web":
		runWeb(ctx, cfg, client, svc)
	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown mode")
	}
}

func runTUI(ctx context.Context, svc *dashboard.Service) {
	// The terminal belongs to the UI; keep logs out of it
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open log file")
		}
		defer f.Close()
		log.Logger = log.Output(f)
	} else {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	app := tui.New(ctx, svc)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	app.Attach(p)

	if _, err := p.Run(); err != nil && err != tea.ErrProgramKilled {
		log.Fatal().Err(err).Msg("Terminal UI failed")
	}
	svc.Stop()
}

func runWeb(ctx context.Context, cfg *config.Config, client *adminapi.Client, svc *dashboard.Service) {
	log.Info().Str("version", version).Msg("Starting Clotilde admin console")

	tokens, err := csrf.NewManager(cfg.CSRF.Secret, cfg.CSRF.Lifetime)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize CSRF tokens")
	}
	if cfg.CSRF.Secret == "" {
		log.Warn().Msg("CSRF_SECRET not set, using a random secret")
	}

	svc.Start(ctx)
	defer svc.Stop()

	health := monitoring.NewHealthMonitor(version)
	health.RegisterChecker(monitoring.NewAdminAPIChecker(func(ctx context.Context) error {
		_, err := client.FetchStats(ctx)
		return err
	}))
	health.RegisterChecker(monitoring.NewStatsCacheChecker(client.StatsCacheStats))

	// Setup routes
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health.HTTPHandler())
	api.NewHandler(svc, tokens).Routes(r)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	go func() {
		<-ctx.Done()

		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
		close(done)
	}()

	log.Info().Str("port", cfg.Server.Port).Str("admin_api", cfg.Admin.BaseURL).Msg("Server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	<-done
	log.Info().Msg("Server stopped")
}

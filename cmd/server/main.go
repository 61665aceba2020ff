package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cerebroscan/backend/internal/api"
	"github.com/cerebroscan/backend/internal/archive"
	"github.com/cerebroscan/backend/internal/config"
	"github.com/cerebroscan/backend/internal/export"
	"github.com/cerebroscan/backend/internal/inference"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/cerebroscan/backend/internal/results"
	"github.com/cerebroscan/backend/internal/upload"
	"github.com/cerebroscan/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		log.Fatalf("Failed to get executable path: %v", err)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "CerebroScan.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := log.ParseLevel(cfg.Advanced.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	api.ShowErrorDetails = level >= log.DebugLevel

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	rules, err := presentation.LoadRules(cfg.Presentation.RulesFile)
	if err != nil {
		log.Warnf("Failed to load presentation rules, using defaults: %v", err)
		rules = presentation.DefaultRules()
	}

	client := inference.NewClient(inference.Options{
		BaseURL:   cfg.Inference.Endpoint,
		FieldName: cfg.Inference.FieldName,
		Timeout:   cfg.InferenceTimeout(),
	})

	store := results.NewStore()

	var opts []upload.Option
	if cfg.Storage.EnablePersistence {
		arc, err := archive.Open(cfg.Storage.ArchivePath)
		if err != nil {
			log.Fatalf("Failed to open result archive: %v", err)
		}
		defer arc.Close()

		previous, err := arc.Load(context.Background())
		if err != nil {
			log.Warnf("Failed to rehydrate results: %v", err)
		} else {
			store.Append(previous...)
			log.Infof("Restored %d archived result(s)", len(previous))
		}
		opts = append(opts, upload.WithArchive(arc))
	}

	pipeline := upload.NewPipeline(client, store, opts...)

	exports, err := export.NewLocalStore(cfg.Storage.ExportsDirectory)
	if err != nil {
		log.Fatalf("Failed to initialize export storage: %v", err)
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Pipeline:    pipeline,
		Results:     store,
		Exports:     exports,
		Upstream:    client,
		Rules:       rules,
		Theme:       presentation.NewTheme(cfg.Presentation.DarkTheme),
		AllowedExts: cfg.AllowedExtensions(),
		MaxFiles:    cfg.Security.MaxFilesPerBatch,
		Version:     Version,
	})

	// Check if running in embedded mode (page built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/api/pipeline"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			// Predict has its own upstream timeout; the stream is long-lived
			return strings.HasPrefix(path, "/api/predict") ||
				strings.HasPrefix(path, "/api/ws/")
		},
		ErrorMessage: "Request timeout",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/api/ws/") || strings.HasSuffix(path, ".png")
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Register embedded page if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warnf("Failed to register static routes: %v", err)
		} else {
			log.Info("Serving embedded page from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	persistence := "off"
	if cfg.Storage.EnablePersistence {
		persistence = cfg.Storage.ArchivePath
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           CerebroScan Server                              ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Inference: %-46s║\n", cfg.Inference.Endpoint)
	fmt.Printf("║  Archive:   %-46s║\n", persistence)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server stopped: %v", err)
	}
}
